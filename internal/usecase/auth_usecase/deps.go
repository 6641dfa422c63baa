package auth

import (
	"context"
	"time"

	"ecauth/internal/domain/model"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// JWTの発行と検証
type TokenIssuer interface {
	SignAccess(claims model.TokenClaims, now time.Time) (string, time.Time, error)
	SignRefresh(claims model.TokenClaims, now time.Time) (string, time.Time, error)
	SignPending2FA(email string, now time.Time) (string, time.Time, error)
	Verify(token string, class model.TokenClass) (*model.TokenClaims, error)
}

// TOTPの生成・検証
type TotpEngine interface {
	GenerateSecret() (string, error)
	EnrollmentURI(email string, secret string) string
	Verify(secret string, code string, now time.Time) bool
	QRDataURL(uri string) (string, error)
}

// コードをメールで送る
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string, expiresIn time.Duration) error
	SendPasswordResetCode(ctx context.Context, to, code string, expiresIn time.Duration) error
	SendPasswordChanged(ctx context.Context, to string) error
}

// 再送間隔の前段チェック（Redis）。nilならDBだけで判定する
type ResendThrottle interface {
	Acquire(ctx context.Context, email string, purpose model.CodePurpose, window time.Duration) (bool, error)
	Mark(ctx context.Context, email string, purpose model.CodePurpose, window time.Duration) error
	Release(ctx context.Context, email string, purpose model.CodePurpose) error
}

// usecaseがValidatorInterfaceに依存する約束
type Validator interface {
	ValidateRegister(ctx context.Context, in RegisterInput) error
	ValidateVerifyEmail(ctx context.Context, email string, code string) error
	ValidateEmail(ctx context.Context, email string) error
	ValidateResetPassword(ctx context.Context, in ResetPasswordInput) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateLogin2FA(ctx context.Context, tempToken string, code string) error
	ValidateRefresh(ctx context.Context, refreshToken string) error
	ValidateTOTPCode(ctx context.Context, code string) error
	ValidateDisable2FA(ctx context.Context, password string, code string) error
}
