package model

import (
	"time"

	"gorm.io/gorm"
)

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "ACTIVE"
	AccountStatusBlocked AccountStatus = "BLOCKED"
)

// 認証の主体。OAuthのみのアカウントはPasswordHashがnil。
type Account struct {
	ID               int64         `gorm:"primaryKey;autoIncrement"`
	Email            string        `gorm:"uniqueIndex;not null"`
	PasswordHash     *string       `gorm:"column:password_hash"`
	Name             string        `gorm:"not null;default:''"`
	PhoneNumber      string        `gorm:"not null;default:''"`
	Avatar           string        `gorm:"not null;default:''"`
	EmailVerifiedAt  *time.Time    `gorm:"index"`
	Status           AccountStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	TwoFactorEnabled bool          `gorm:"column:two_factor_enabled;not null;default:false"`
	// 登録途中（未有効化）のシークレットもここに入る
	TOTPSecret  *string `gorm:"column:totp_secret"`
	GoogleID    *string `gorm:"column:google_id;uniqueIndex"`
	RoleID      int64   `gorm:"not null;index"`
	Role        Role
	LastLoginAt *time.Time
	Timestamps  Timestamp      `gorm:"embedded"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

func (a *Account) IsVerified() bool {
	return a.EmailVerifiedAt != nil
}

func (a *Account) IsBlocked() bool {
	return a.Status == AccountStatusBlocked
}

// 有効化前のシークレットがあるか
func (a *Account) HasPendingTOTP() bool {
	return !a.TwoFactorEnabled && a.TOTPSecret != nil && *a.TOTPSecret != ""
}
