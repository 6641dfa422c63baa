package model

import "time"

type TokenClass string

const (
	TokenClassAccess     TokenClass = "access"
	TokenClassRefresh    TokenClass = "refresh"
	TokenClassPending2FA TokenClass = "2fa_pending"
)

// JWTに載せる値。2FA待ちトークンはEmailとPending2FAだけ。
type TokenClaims struct {
	AccountID  int64
	Email      string
	Role       string
	DeviceID   *int64
	Pending2FA bool
	ExpiresAt  time.Time
}
