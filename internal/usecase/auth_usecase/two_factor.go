package auth

import "context"

type Setup2FAOutput struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"` // data:image/png;base64,...
}

type TwoFactorStatusOutput struct {
	Enabled bool `json:"enabled"`
	Pending bool `json:"pending"`
}

// シークレットを作って保留状態で保存する。有効化はVerify2FAで
func (u *AuthUsecase) Setup2FA(ctx context.Context, accountID int64) (Setup2FAOutput, error) {
	account, err := u.loadAccount(ctx, accountID)
	if err != nil {
		return Setup2FAOutput{}, err
	}
	if account.TwoFactorEnabled {
		return Setup2FAOutput{}, ErrTwoFactorAlreadyEnabled
	}

	secret, err := u.totp.GenerateSecret()
	if err != nil {
		return Setup2FAOutput{}, err
	}
	uri := u.totp.EnrollmentURI(account.Email, secret)
	qr, err := u.totp.QRDataURL(uri)
	if err != nil {
		return Setup2FAOutput{}, err
	}

	if err := u.accounts.UpdateTwoFactor(ctx, account.ID, false, &secret); err != nil {
		return Setup2FAOutput{}, err
	}

	return Setup2FAOutput{Secret: secret, OtpauthURL: uri, QRCode: qr}, nil
}

// 保留中のシークレットでコードが合えば有効化
func (u *AuthUsecase) Verify2FA(ctx context.Context, accountID int64, code string) (MessageOutput, error) {
	if err := u.validator.ValidateTOTPCode(ctx, code); err != nil {
		return MessageOutput{}, err
	}

	account, err := u.loadAccount(ctx, accountID)
	if err != nil {
		return MessageOutput{}, err
	}
	if account.TwoFactorEnabled {
		return MessageOutput{}, ErrTwoFactorAlreadyEnabled
	}
	if !account.HasPendingTOTP() {
		return MessageOutput{}, ErrTwoFactorNotPending
	}

	if !u.totp.Verify(*account.TOTPSecret, code, u.clock.Now()) {
		return MessageOutput{}, ErrInvalid2FACode
	}

	if err := u.accounts.UpdateTwoFactor(ctx, account.ID, true, account.TOTPSecret); err != nil {
		return MessageOutput{}, err
	}
	return MessageOutput{Message: "Two-factor authentication enabled"}, nil
}

// パスワードと現在のコードの両方が必要
func (u *AuthUsecase) Disable2FA(ctx context.Context, accountID int64, password, code string) (MessageOutput, error) {
	if err := u.validator.ValidateDisable2FA(ctx, password, code); err != nil {
		return MessageOutput{}, err
	}

	account, err := u.loadAccount(ctx, accountID)
	if err != nil {
		return MessageOutput{}, err
	}
	if !account.TwoFactorEnabled || account.TOTPSecret == nil {
		return MessageOutput{}, ErrTwoFactorNotEnabled
	}
	if !account.HasPassword() {
		return MessageOutput{}, ErrPasswordNotSet
	}

	passwordOK := u.verifier.Verify(password, *account.PasswordHash)
	codeOK := u.totp.Verify(*account.TOTPSecret, code, u.clock.Now())
	if !passwordOK {
		return MessageOutput{}, ErrInvalidCredentials
	}
	if !codeOK {
		return MessageOutput{}, ErrInvalid2FACode
	}

	if err := u.accounts.UpdateTwoFactor(ctx, account.ID, false, nil); err != nil {
		return MessageOutput{}, err
	}
	return MessageOutput{Message: "Two-factor authentication disabled"}, nil
}

func (u *AuthUsecase) TwoFactorStatus(ctx context.Context, accountID int64) (TwoFactorStatusOutput, error) {
	account, err := u.loadAccount(ctx, accountID)
	if err != nil {
		return TwoFactorStatusOutput{}, err
	}
	return TwoFactorStatusOutput{
		Enabled: account.TwoFactorEnabled,
		Pending: account.HasPendingTOTP(),
	}, nil
}
