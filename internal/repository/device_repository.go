package repository

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
)

var ErrDeviceNotFound = errors.New("device not found")

// 端末の保存・取得・無効化
type DeviceRepository interface {
	// fingerprintが既にあれば ip/user_agent/last_active_at を更新して再有効化する
	UpsertByFingerprint(ctx context.Context, device *model.Device) (*model.Device, error)
	FindByID(ctx context.Context, accountID int64, deviceID int64) (*model.Device, error)
	Touch(ctx context.Context, deviceID int64, at time.Time) error
	Deactivate(ctx context.Context, accountID int64, deviceID int64) error
	// activeな端末を新しい順に。activeなセッション数付き
	ListActiveByAccountID(ctx context.Context, accountID int64) ([]model.DeviceSummary, error)
}
