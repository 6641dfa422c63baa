package auth

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"
)

// access/refreshの組
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// 2FAが必要なときはTempTokenだけ、そうでなければトークンと端末
type LoginOutput struct {
	Requires2FA bool        `json:"requires2FA"`
	TempToken   string      `json:"tempToken,omitempty"`
	User        *AccountDTO `json:"user,omitempty"`
	Tokens      *TokenPair  `json:"tokens,omitempty"`
	DeviceID    *int64      `json:"deviceId,omitempty"`
}

// ログイン。2FA有効なら端末もセッションもまだ作らない
func (u *AuthUsecase) Login(ctx context.Context, email, password string, info DeviceInfo) (LoginOutput, error) {
	if err := u.validator.ValidateLogin(ctx, email, password); err != nil {
		return LoginOutput{}, err
	}
	email = normalizeEmail(email)

	account, err := u.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return LoginOutput{}, ErrInvalidCredentials
		}
		return LoginOutput{}, err
	}

	if !account.HasPassword() {
		return LoginOutput{}, ErrPasswordNotSet
	}
	if !u.verifier.Verify(password, *account.PasswordHash) {
		return LoginOutput{}, ErrInvalidCredentials
	}
	if !account.IsVerified() {
		return LoginOutput{}, ErrEmailNotVerified
	}
	if account.IsBlocked() {
		return LoginOutput{}, ErrAccountBlocked
	}

	if account.TwoFactorEnabled {
		temp, _, err := u.tokens.SignPending2FA(account.Email, u.clock.Now())
		if err != nil {
			return LoginOutput{}, err
		}
		return LoginOutput{Requires2FA: true, TempToken: temp}, nil
	}

	return u.issueSession(ctx, account, info)
}

// 2FA待ちトークン + TOTPでログインを完了する
func (u *AuthUsecase) LoginWith2FA(ctx context.Context, tempToken, code string, info DeviceInfo) (LoginOutput, error) {
	if err := u.validator.ValidateLogin2FA(ctx, tempToken, code); err != nil {
		return LoginOutput{}, err
	}

	claims, err := u.tokens.Verify(tempToken, model.TokenClassPending2FA)
	if err != nil {
		return LoginOutput{}, ErrInvalidToken
	}

	account, err := u.accounts.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return LoginOutput{}, ErrInvalidToken
		}
		return LoginOutput{}, err
	}
	if !account.TwoFactorEnabled || account.TOTPSecret == nil {
		return LoginOutput{}, ErrInvalidToken
	}
	if account.IsBlocked() {
		return LoginOutput{}, ErrAccountBlocked
	}

	if !u.totp.Verify(*account.TOTPSecret, code, u.clock.Now()) {
		return LoginOutput{}, ErrInvalid2FACode
	}

	return u.issueSession(ctx, account, info)
}

// Googleのプロフィール（handlerがOAuthの結果から詰める）
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleログインもLoginと同じく端末とセッションを作る
func (u *AuthUsecase) GoogleLogin(ctx context.Context, p GoogleProfile, info DeviceInfo) (LoginOutput, error) {
	if p.Subject == "" || p.Email == "" {
		return LoginOutput{}, ErrInvalidToken
	}
	email := normalizeEmail(p.Email)

	account, err := u.accounts.FindByGoogleID(ctx, p.Subject)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAccountNotFound):
		account, err = u.linkOrCreateGoogleAccount(ctx, p, email)
		if err != nil {
			return LoginOutput{}, err
		}
	default:
		return LoginOutput{}, err
	}

	if account.IsBlocked() {
		return LoginOutput{}, ErrAccountBlocked
	}

	return u.issueSession(ctx, account, info)
}

// 同じemailがあれば紐付け、なければパスワードなしで作る
func (u *AuthUsecase) linkOrCreateGoogleAccount(ctx context.Context, p GoogleProfile, email string) (*model.Account, error) {
	now := u.clock.Now()

	existing, err := u.accounts.FindByEmail(ctx, email)
	if err == nil {
		var verifiedAt *time.Time
		if p.EmailVerified {
			verifiedAt = &now
		}
		if err := u.accounts.LinkGoogleID(ctx, existing.ID, p.Subject, verifiedAt); err != nil {
			return nil, err
		}
		return u.accounts.FindByID(ctx, existing.ID)
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	role, err := u.roles.FindByName(ctx, model.RoleNameUser)
	if err != nil {
		return nil, err
	}

	googleID := p.Subject
	account := &model.Account{
		Email:           email,
		Name:            p.Name,
		Avatar:          p.Picture,
		EmailVerifiedAt: &now,
		Status:          model.AccountStatusActive,
		GoogleID:        &googleID,
		RoleID:          role.ID,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	account.Role = *role
	return account, nil
}

// 端末特定 → access/refresh発行 → セッション作成
func (u *AuthUsecase) issueSession(ctx context.Context, account *model.Account, info DeviceInfo) (LoginOutput, error) {
	device, err := u.devices.IdentifyOrCreate(ctx, account.ID, info)
	if err != nil {
		return LoginOutput{}, err
	}

	now := u.clock.Now()
	deviceID := device.ID
	claims := model.TokenClaims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role.Name,
		DeviceID:  &deviceID,
	}

	access, accessExp, err := u.tokens.SignAccess(claims, now)
	if err != nil {
		return LoginOutput{}, err
	}
	refresh, refreshExp, err := u.tokens.SignRefresh(claims, now)
	if err != nil {
		return LoginOutput{}, err
	}

	if _, err := u.sessions.Create(ctx, NewSession{
		AccountID:    account.ID,
		DeviceID:     deviceID,
		AccessToken:  access,
		RefreshToken: refresh,
		IP:           info.IP,
		UserAgent:    info.UserAgent,
		ExpiresAt:    refreshExp,
	}); err != nil {
		return LoginOutput{}, err
	}

	if err := u.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		return LoginOutput{}, err
	}

	user := NewAccountDTO(account)
	return LoginOutput{
		User: &user,
		Tokens: &TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    int(accessExp.Sub(now).Seconds()),
		},
		DeviceID: &deviceID,
	}, nil
}
