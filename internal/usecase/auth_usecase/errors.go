package auth

import "errors"

// 入力が不正（400）。項目ごとの内容はValidationErrorで返す
var ErrValidation = errors.New("validation error")

// ValidationErrorはerrors.Is(err, ErrValidation)でtrueになる
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var (
	// 400 コードが違う・期限切れ
	ErrInvalidCode = errors.New("invalid or expired verification code")
	// 400 2FAが有効になっていない
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")
	// 400 setupが先
	ErrTwoFactorNotPending = errors.New("two-factor setup has not been started")

	// 401 ログイン時は存在しないemailも同じエラーにする
	ErrInvalidCredentials = errors.New("invalid email or password")
	// 401 Googleでしかログインできないアカウント
	ErrPasswordNotSet = errors.New("account has no password; sign in with Google")
	// 401
	ErrEmailNotVerified = errors.New("email is not verified")
	// 401
	ErrAccountBlocked = errors.New("account is blocked")
	// 401 access/2FA待ちトークンが不正
	ErrInvalidToken = errors.New("invalid or expired token")
	// 401 存在しない・無効・期限切れを区別しない
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// 401
	ErrInvalid2FACode = errors.New("invalid two-factor code")

	// 403
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// 404
	ErrAccountNotFound = errors.New("account not found")
	ErrDeviceNotFound  = errors.New("device not found")

	// 409
	ErrEmailAlreadyExists      = errors.New("email already exists")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")

	// 429
	ErrTooManyRequests = errors.New("verification code was sent recently; try again later")
)
