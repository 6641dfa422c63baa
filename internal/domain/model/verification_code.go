package model

import "time"

type CodePurpose string

const (
	CodePurposeRegister      CodePurpose = "REGISTER"
	CodePurposeResetPassword CodePurpose = "RESET_PASSWORD"
)

// メール宛のワンタイムコード。(email, purpose)ごとに最大1件。
type VerificationCode struct {
	ID        int64       `gorm:"primaryKey;autoIncrement"`
	Email     string      `gorm:"not null;uniqueIndex:idx_verification_codes_email_purpose"`
	Code      string      `gorm:"type:varchar(6);not null"`
	Purpose   CodePurpose `gorm:"type:varchar(20);not null;uniqueIndex:idx_verification_codes_email_purpose"`
	ExpiresAt time.Time   `gorm:"not null;index"`
	CreatedAt time.Time   `gorm:"not null;index"`
}
