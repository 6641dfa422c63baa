package repository

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
	repo "ecauth/internal/repository"

	"gorm.io/gorm"
)

type sessionGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewSessionGormRepository(db *gorm.DB) repo.SessionRepository {
	return &sessionGormRepository{db: db}
}

// セッションを保存。
func (r *sessionGormRepository) Create(ctx context.Context, session *model.Session) error {
	//タイムアウトやキャンセルをDB処理に伝える
	if err := r.db.WithContext(ctx).Omit("Device").Create(session).Error; err != nil {
		return err
	}
	return nil
}

// 存在しない・無効・期限切れは全部同じErrSessionNotFoundになる。
func (r *sessionGormRepository) FindUsableByRefreshHash(ctx context.Context, refreshHash string, now time.Time) (*model.Session, error) {
	var s model.Session

	err := r.db.WithContext(ctx).
		Where("refresh_token_hash = ? AND is_active = ? AND expires_at > ?", refreshHash, true, now).
		First(&s).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrSessionNotFound
		}
		return nil, err
	}

	return &s, nil
}

// access tokenだけ差し替える。refreshはそのまま。
func (r *sessionGormRepository) UpdateAccessToken(ctx context.Context, sessionID int64, accessHash string, ip string, usedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"access_token_hash": accessHash,
			"ip":                ip,
			"last_used_at":      usedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrSessionNotFound
	}

	return nil
}

// 0件でもエラーにしない（冪等）。
func (r *sessionGormRepository) DeactivateByRefreshHash(ctx context.Context, accountID int64, refreshHash string) (int64, error) {
	return r.deactivate(ctx, "account_id = ? AND refresh_token_hash = ?", accountID, refreshHash)
}

// 指定アカウントのセッションを全部無効化します。
func (r *sessionGormRepository) DeactivateAllByAccountID(ctx context.Context, accountID int64) (int64, error) {
	return r.deactivate(ctx, "account_id = ?", accountID)
}

func (r *sessionGormRepository) DeactivateByDevice(ctx context.Context, accountID int64, deviceID int64) (int64, error) {
	return r.deactivate(ctx, "account_id = ? AND device_id = ?", accountID, deviceID)
}

func (r *sessionGormRepository) deactivate(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where(query, args...).
		Where("is_active = ?", true).
		Update("is_active", false)

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *sessionGormRepository) ListActiveByAccountID(ctx context.Context, accountID int64, now time.Time) ([]model.Session, error) {
	var sessions []model.Session

	err := r.db.WithContext(ctx).
		Preload("Device").
		Where("account_id = ? AND is_active = ? AND expires_at > ?", accountID, true, now).
		Order("last_used_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
