package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"
)

// 作成時に渡す値。トークンは平文で受け取りhashにして保存する
type NewSession struct {
	AccountID    int64
	DeviceID     int64
	AccessToken  string
	RefreshToken string
	IP           string
	UserAgent    string
	ExpiresAt    time.Time
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type SessionStore struct {
	sessions repository.SessionRepository
	clock    Clock
}

func NewSessionStore(sessions repository.SessionRepository, clock Clock) *SessionStore {
	return &SessionStore{sessions: sessions, clock: clock}
}

func (s *SessionStore) Create(ctx context.Context, in NewSession) (*model.Session, error) {
	now := s.clock.Now()
	session := &model.Session{
		AccountID:        in.AccountID,
		DeviceID:         in.DeviceID,
		AccessTokenHash:  hashToken(in.AccessToken),
		RefreshTokenHash: hashToken(in.RefreshToken),
		IP:               in.IP,
		UserAgent:        in.UserAgent,
		ExpiresAt:        in.ExpiresAt,
		LastUsedAt:       now,
		IsActive:         true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// 見つからない・無効・期限切れはすべてErrInvalidRefreshToken
func (s *SessionStore) ValidateRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	session, err := s.sessions.FindUsableByRefreshHash(ctx, hashToken(refreshToken), s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return session, nil
}

// refreshはそのまま、accessだけ差し替える
func (s *SessionStore) RotateAccessToken(ctx context.Context, sessionID int64, accessToken string, ip string) error {
	return s.sessions.UpdateAccessToken(ctx, sessionID, hashToken(accessToken), ip, s.clock.Now())
}

func (s *SessionStore) Deactivate(ctx context.Context, accountID int64, refreshToken string) error {
	_, err := s.sessions.DeactivateByRefreshHash(ctx, accountID, hashToken(refreshToken))
	return err
}

func (s *SessionStore) DeactivateAll(ctx context.Context, accountID int64) (int64, error) {
	return s.sessions.DeactivateAllByAccountID(ctx, accountID)
}

func (s *SessionStore) DeactivateForDevice(ctx context.Context, accountID, deviceID int64) (int64, error) {
	return s.sessions.DeactivateByDevice(ctx, accountID, deviceID)
}

func (s *SessionStore) ListActive(ctx context.Context, accountID int64) ([]model.Session, error) {
	return s.sessions.ListActiveByAccountID(ctx, accountID, s.clock.Now())
}
