package auth

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"
)

type RefreshOutput struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// 一覧表示用のセッション（トークンは返さない）
type SessionDTO struct {
	ID         int64     `json:"id"`
	DeviceID   int64     `json:"deviceId"`
	DeviceName string    `json:"deviceName"`
	DeviceType string    `json:"deviceType"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewSessionDTO(s model.Session) SessionDTO {
	dto := SessionDTO{
		ID:         s.ID,
		DeviceID:   s.DeviceID,
		IP:         s.IP,
		UserAgent:  s.UserAgent,
		LastUsedAt: s.LastUsedAt,
		ExpiresAt:  s.ExpiresAt,
		CreatedAt:  s.Timestamp.CreatedAt,
	}
	if s.Device != nil {
		dto.DeviceName = s.Device.DeviceName
		dto.DeviceType = s.Device.DeviceType
	}
	return dto
}

// accessだけ作り直す。refreshは使い回す（同時に呼ばれても両方成功する）
func (u *AuthUsecase) RefreshToken(ctx context.Context, refreshToken string, ip string) (RefreshOutput, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshToken); err != nil {
		return RefreshOutput{}, err
	}

	if _, err := u.tokens.Verify(refreshToken, model.TokenClassRefresh); err != nil {
		return RefreshOutput{}, ErrInvalidRefreshToken
	}

	session, err := u.sessions.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return RefreshOutput{}, err
	}

	account, err := u.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return RefreshOutput{}, ErrInvalidRefreshToken
		}
		return RefreshOutput{}, err
	}
	if account.IsBlocked() {
		return RefreshOutput{}, ErrAccountBlocked
	}

	if err := u.devices.Touch(ctx, session.DeviceID); err != nil && !errors.Is(err, repository.ErrDeviceNotFound) {
		return RefreshOutput{}, err
	}

	now := u.clock.Now()
	deviceID := session.DeviceID
	access, accessExp, err := u.tokens.SignAccess(model.TokenClaims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role.Name,
		DeviceID:  &deviceID,
	}, now)
	if err != nil {
		return RefreshOutput{}, err
	}

	if err := u.sessions.RotateAccessToken(ctx, session.ID, access, ip); err != nil {
		return RefreshOutput{}, err
	}

	return RefreshOutput{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int(accessExp.Sub(now).Seconds()),
	}, nil
}

// 自分のセッションだけ無効にできる（冪等）
func (u *AuthUsecase) Logout(ctx context.Context, accountID int64, refreshToken string) (MessageOutput, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshToken); err != nil {
		return MessageOutput{}, err
	}
	if err := u.sessions.Deactivate(ctx, accountID, refreshToken); err != nil {
		return MessageOutput{}, err
	}
	return MessageOutput{Message: "Logged out successfully"}, nil
}

func (u *AuthUsecase) LogoutAllDevices(ctx context.Context, accountID int64) (MessageOutput, error) {
	if _, err := u.sessions.DeactivateAll(ctx, accountID); err != nil {
		return MessageOutput{}, err
	}
	return MessageOutput{Message: "Logged out from all devices"}, nil
}

// 端末のセッションを全部落としてから端末も無効にする
func (u *AuthUsecase) RevokeDevice(ctx context.Context, accountID, deviceID int64) (MessageOutput, error) {
	if _, err := u.devices.Get(ctx, accountID, deviceID); err != nil {
		return MessageOutput{}, err
	}
	if _, err := u.sessions.DeactivateForDevice(ctx, accountID, deviceID); err != nil {
		return MessageOutput{}, err
	}
	if err := u.devices.Deactivate(ctx, accountID, deviceID); err != nil {
		return MessageOutput{}, err
	}
	return MessageOutput{Message: "Device revoked successfully"}, nil
}

func (u *AuthUsecase) ListSessions(ctx context.Context, accountID int64) ([]SessionDTO, error) {
	sessions, err := u.sessions.ListActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, NewSessionDTO(s))
	}
	return out, nil
}

func (u *AuthUsecase) ListDevices(ctx context.Context, accountID int64) ([]model.DeviceSummary, error) {
	return u.devices.ListActive(ctx, accountID)
}
