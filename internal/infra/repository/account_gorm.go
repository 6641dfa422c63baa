package repository

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
	repo "ecauth/internal/repository"

	"gorm.io/gorm"
)

type accountGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewAccountGormRepository(db *gorm.DB) repo.AccountRepository {
	return &accountGormRepository{db: db}
}

// Create はアカウントを新規作成
func (r *accountGormRepository) Create(ctx context.Context, account *model.Account) error {
	if err := r.db.WithContext(ctx).Omit("Role").Create(account).Error; err != nil {
		// 同時登録はuniqueIndexで止める
		if isUniqueViolation(err) {
			return repo.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// IDでアカウントを1件取得
func (r *accountGormRepository) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

// emailでアカウントを1件取得
func (r *accountGormRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *accountGormRepository) FindByGoogleID(ctx context.Context, googleID string) (*model.Account, error) {
	return r.findOne(ctx, "google_id = ?", googleID)
}

func (r *accountGormRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Account, error) {
	var a model.Account

	err := r.db.WithContext(ctx).
		Preload("Role.Permissions").
		Where(query, arg).
		First(&a).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrAccountNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *accountGormRepository) MarkEmailVerified(ctx context.Context, id int64, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"email_verified_at": at})
}

func (r *accountGormRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}

func (r *accountGormRepository) UpdateTwoFactor(ctx context.Context, id int64, enabled bool, secret *string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"two_factor_enabled": enabled,
		"totp_secret":        secret,
	})
}

func (r *accountGormRepository) UpdateStatus(ctx context.Context, id int64, status model.AccountStatus) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"status": status})
}

func (r *accountGormRepository) LinkGoogleID(ctx context.Context, id int64, googleID string, verifiedAt *time.Time) error {
	cols := map[string]interface{}{"google_id": googleID}
	if verifiedAt != nil {
		cols["email_verified_at"] = gorm.Expr("COALESCE(email_verified_at, ?)", *verifiedAt)
	}
	return r.updateColumns(ctx, id, cols)
}

func (r *accountGormRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"last_login_at": at})
}

func (r *accountGormRepository) updateColumns(ctx context.Context, id int64, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(cols)

	if res.Error != nil {
		return res.Error
	}

	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return repo.ErrAccountNotFound
	}
	return nil
}
