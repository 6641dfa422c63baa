package repository

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
	repo "ecauth/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type verificationCodeGormRepository struct {
	db *gorm.DB
}

func NewVerificationCodeGormRepository(db *gorm.DB) repo.VerificationCodeRepository {
	return &verificationCodeGormRepository{db: db}
}

// 古いコードを消して新しいコードを入れる。
func (r *verificationCodeGormRepository) Replace(ctx context.Context, code *model.VerificationCode) error {
	return r.replace(ctx, code, nil)
}

// (email, purpose)の行をロックしてから判定するので、同時resendでも片方しか通らない。
// 行がまだ無いときの同時INSERTは uniqueIndex 違反で負けた側をErrCodeRecentlyIssuedにする。
func (r *verificationCodeGormRepository) ReplaceUnlessRecent(ctx context.Context, code *model.VerificationCode, since time.Time) error {
	return r.replace(ctx, code, &since)
}

func (r *verificationCodeGormRepository) replace(ctx context.Context, code *model.VerificationCode, since *time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.VerificationCode
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("email = ? AND purpose = ?", code.Email, code.Purpose).
			Find(&existing).Error; err != nil {
			return err
		}

		if since != nil {
			for _, c := range existing {
				if !c.CreatedAt.Before(*since) {
					return repo.ErrCodeRecentlyIssued
				}
			}
		}

		if err := tx.Where("email = ? AND purpose = ?", code.Email, code.Purpose).
			Delete(&model.VerificationCode{}).Error; err != nil {
			return err
		}

		return tx.Create(code).Error
	})

	if err != nil && isUniqueViolation(err) {
		return repo.ErrCodeRecentlyIssued
	}
	return err
}

// 期限内で email/code/purpose が一致するコード。
func (r *verificationCodeGormRepository) FindValid(ctx context.Context, email string, code string, purpose model.CodePurpose, now time.Time) (*model.VerificationCode, error) {
	var vc model.VerificationCode

	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ? AND purpose = ? AND expires_at > ?", email, code, purpose, now).
		First(&vc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrVerificationCodeNotFound
		}
		return nil, err
	}
	return &vc, nil
}

func (r *verificationCodeGormRepository) ExistsCreatedSince(ctx context.Context, email string, purpose model.CodePurpose, since time.Time) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.VerificationCode{}).
		Where("email = ? AND purpose = ? AND created_at >= ?", email, purpose, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 削除できた1件だけが有効な使用。0件なら既に使われたか期限切れ。
func (r *verificationCodeGormRepository) ConsumeValid(ctx context.Context, email string, code string, purpose model.CodePurpose, now time.Time) error {
	result := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND code = ? AND expires_at > ?", email, purpose, code, now).
		Delete(&model.VerificationCode{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrVerificationCodeNotFound
	}
	return nil
}

func (r *verificationCodeGormRepository) DeleteByEmailAndPurpose(ctx context.Context, email string, purpose model.CodePurpose) error {
	return r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&model.VerificationCode{}).Error
}

// 期限切れコードの掃除（任意のメンテナンス）
func (r *verificationCodeGormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.VerificationCode{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
