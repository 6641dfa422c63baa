package repository

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
)

var ErrSessionNotFound = errors.New("session not found")

// セッションの保存・取得・無効化。行は削除しない。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// refresh hash一致 + active + 期限内をまとめて1クエリで探す
	FindUsableByRefreshHash(ctx context.Context, refreshHash string, now time.Time) (*model.Session, error)
	UpdateAccessToken(ctx context.Context, sessionID int64, accessHash string, ip string, usedAt time.Time) error
	DeactivateByRefreshHash(ctx context.Context, accountID int64, refreshHash string) (int64, error)
	DeactivateAllByAccountID(ctx context.Context, accountID int64) (int64, error)
	DeactivateByDevice(ctx context.Context, accountID int64, deviceID int64) (int64, error)
	ListActiveByAccountID(ctx context.Context, accountID int64, now time.Time) ([]model.Session, error)
}
