package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"

	"github.com/mssola/useragent"
)

// 接続元の情報（handlerが詰める）
type DeviceInfo struct {
	IP        string
	UserAgent string
}

// UAを解析した結果
type parsedAgent struct {
	browser    string
	os         string
	deviceType string
}

func parseAgent(raw string) parsedAgent {
	ua := useragent.New(raw)

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown"
	}
	os := ua.OSInfo().Name
	if os == "" {
		os = "Unknown"
	}

	deviceType := "desktop"
	switch {
	case ua.Bot():
		deviceType = "bot"
	case strings.Contains(strings.ToLower(raw), "ipad") || strings.Contains(strings.ToLower(raw), "tablet"):
		deviceType = "tablet"
	case ua.Mobile():
		deviceType = "mobile"
	}

	return parsedAgent{browser: browser, os: os, deviceType: deviceType}
}

// account + browser + os + ip のsha256
func deviceFingerprint(accountID int64, p parsedAgent, ip string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d-%s-%s-%s", accountID, p.browser, p.os, ip)))
	return hex.EncodeToString(sum[:])
}

type DeviceRegistry struct {
	devices repository.DeviceRepository
	clock   Clock
}

func NewDeviceRegistry(devices repository.DeviceRepository, clock Clock) *DeviceRegistry {
	return &DeviceRegistry{devices: devices, clock: clock}
}

// 初めての組み合わせなら作成、既知ならip/最終利用を更新する
func (r *DeviceRegistry) IdentifyOrCreate(ctx context.Context, accountID int64, info DeviceInfo) (*model.Device, error) {
	p := parseAgent(info.UserAgent)
	now := r.clock.Now()

	return r.devices.UpsertByFingerprint(ctx, &model.Device{
		AccountID:    accountID,
		Fingerprint:  deviceFingerprint(accountID, p, info.IP),
		DeviceName:   p.browser + " on " + p.os,
		DeviceType:   p.deviceType,
		Browser:      p.browser,
		OS:           p.os,
		IP:           info.IP,
		UserAgent:    info.UserAgent,
		LastActiveAt: now,
		IsActive:     true,
	})
}

func (r *DeviceRegistry) Touch(ctx context.Context, deviceID int64) error {
	return r.devices.Touch(ctx, deviceID, r.clock.Now())
}

func (r *DeviceRegistry) Get(ctx context.Context, accountID, deviceID int64) (*model.Device, error) {
	d, err := r.devices.FindByID(ctx, accountID, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DeviceRegistry) Deactivate(ctx context.Context, accountID, deviceID int64) error {
	return r.devices.Deactivate(ctx, accountID, deviceID)
}

func (r *DeviceRegistry) ListActive(ctx context.Context, accountID int64) ([]model.DeviceSummary, error) {
	return r.devices.ListActiveByAccountID(ctx, accountID)
}
