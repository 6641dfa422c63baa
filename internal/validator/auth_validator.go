package validator

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	auth "ecauth/internal/usecase/auth_usecase"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	codeRe  = regexp.MustCompile(`^[0-9]{6}$`)
	// +と数字のみ。区切りは前処理で落とす
	phoneRe = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcryptの上限
	maxNameLen     = 100
)

type authValidator struct {
	totpDigits int
}

// Usecaseは interface を依存注入
func NewAuthValidator(totpDigits int) auth.Validator {
	if totpDigits != 8 {
		totpDigits = 6
	}
	return &authValidator{totpDigits: totpDigits}
}

// 会員登録の入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, in auth.RegisterInput) error {
	if err := checkEmail(in.Email); err != nil {
		return err
	}
	if err := checkPassword("password", in.Password); err != nil {
		return err
	}
	if len([]rune(strings.TrimSpace(in.Name))) > maxNameLen {
		return auth.NewValidationError("name", "must be at most 100 characters")
	}
	if p := normalizePhone(in.PhoneNumber); p != "" && !phoneRe.MatchString(p) {
		return auth.NewValidationError("phoneNumber", "must be a valid phone number")
	}
	return nil
}

func (v *authValidator) ValidateVerifyEmail(ctx context.Context, email string, code string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	return checkOTP(code)
}

func (v *authValidator) ValidateEmail(ctx context.Context, email string) error {
	return checkEmail(email)
}

// 新しいパスワードは英大文字・小文字・数字を含む
func (v *authValidator) ValidateResetPassword(ctx context.Context, in auth.ResetPasswordInput) error {
	if err := checkEmail(in.Email); err != nil {
		return err
	}
	if err := checkOTP(in.Code); err != nil {
		return err
	}
	if err := checkPassword("newPassword", in.NewPassword); err != nil {
		return err
	}
	if !hasMixedCharacters(in.NewPassword) {
		return auth.NewValidationError("newPassword", "must contain an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if password == "" {
		return auth.NewValidationError("password", "is required")
	}
	return nil
}

func (v *authValidator) ValidateLogin2FA(ctx context.Context, tempToken string, code string) error {
	if strings.TrimSpace(tempToken) == "" {
		return auth.NewValidationError("tempToken", "is required")
	}
	return v.ValidateTOTPCode(ctx, code)
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return auth.NewValidationError("refreshToken", "is required")
	}
	return nil
}

func (v *authValidator) ValidateTOTPCode(ctx context.Context, code string) error {
	if len(code) != v.totpDigits || !isDigits(code) {
		return auth.NewValidationError("code", "must be a numeric authenticator code")
	}
	return nil
}

func (v *authValidator) ValidateDisable2FA(ctx context.Context, password string, code string) error {
	if len(password) < minPasswordLen {
		return auth.NewValidationError("password", "must be at least 6 characters")
	}
	return v.ValidateTOTPCode(ctx, code)
}

func checkEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return auth.NewValidationError("email", "is required")
	}
	// 表示名付き（"A <a@x.com>"）は弾く
	if !emailRe.MatchString(email) {
		return auth.NewValidationError("email", "must be a valid email address")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return auth.NewValidationError("email", "must be a valid email address")
	}
	return nil
}

func checkPassword(field, password string) error {
	if password == "" {
		return auth.NewValidationError(field, "is required")
	}
	if len(password) < minPasswordLen {
		return auth.NewValidationError(field, "must be at least 6 characters")
	}
	if len(password) > maxPasswordLen {
		return auth.NewValidationError(field, "must be at most 72 bytes")
	}
	return nil
}

func checkOTP(code string) error {
	if !codeRe.MatchString(code) {
		return auth.NewValidationError("code", "must be a 6-digit code")
	}
	return nil
}

func hasMixedCharacters(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func normalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(s))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
