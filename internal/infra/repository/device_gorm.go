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

type deviceGormRepository struct {
	db *gorm.DB
}

func NewDeviceGormRepository(db *gorm.DB) repo.DeviceRepository {
	return &deviceGormRepository{db: db}
}

// 同時ログインでも1行になるよう ON CONFLICT(fingerprint) で更新する。
func (r *deviceGormRepository) UpsertByFingerprint(ctx context.Context, device *model.Device) (*model.Device, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fingerprint"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"ip":             device.IP,
				"user_agent":     device.UserAgent,
				"last_active_at": device.LastActiveAt,
				"is_active":      true,
				"updated_at":     device.LastActiveAt,
			}),
		}).
		Create(device).Error
	if err != nil {
		return nil, err
	}

	// 競合時はIDが返らないDBがあるので読み直す
	var saved model.Device
	if err := r.db.WithContext(ctx).
		Where("fingerprint = ?", device.Fingerprint).
		First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *deviceGormRepository) FindByID(ctx context.Context, accountID int64, deviceID int64) (*model.Device, error) {
	var d model.Device

	err := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", deviceID, accountID).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrDeviceNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *deviceGormRepository) Touch(ctx context.Context, deviceID int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", deviceID).
		Update("last_active_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrDeviceNotFound
	}
	return nil
}

// 削除はしない。is_activeを落とすだけ（冪等）。
func (r *deviceGormRepository) Deactivate(ctx context.Context, accountID int64, deviceID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ? AND account_id = ?", deviceID, accountID).
		Update("is_active", false).Error
}

func (r *deviceGormRepository) ListActiveByAccountID(ctx context.Context, accountID int64) ([]model.DeviceSummary, error) {
	var devices []model.Device

	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_active = ?", accountID, true).
		Order("last_active_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}

	//端末ごとのactiveセッション数
	type countRow struct {
		DeviceID int64
		Count    int64
	}
	var rows []countRow
	err = r.db.WithContext(ctx).
		Model(&model.Session{}).
		Select("device_id, COUNT(*) AS count").
		Where("account_id = ? AND is_active = ?", accountID, true).
		Group("device_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.DeviceID] = row.Count
	}

	out := make([]model.DeviceSummary, 0, len(devices))
	for _, d := range devices {
		out = append(out, model.DeviceSummary{Device: d, ActiveSessionCount: counts[d.ID]})
	}
	return out, nil
}
