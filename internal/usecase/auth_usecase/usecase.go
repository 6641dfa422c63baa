package auth

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"
)

// AuthUsecaseの依存。main.goで組み立てる
type Deps struct {
	Accounts  repository.AccountRepository
	Roles     repository.RoleRepository
	Tx        repository.TransactionManager
	Codes     *CodeStore
	Devices   *DeviceRegistry
	Sessions  *SessionStore
	Hasher    PasswordHasher
	Verifier  PasswordVerifier
	Tokens    TokenIssuer
	Totp      TotpEngine
	Mailer    Mailer
	Validator Validator
	Clock     Clock
}

// 登録・確認・ログイン・refresh・2FA・Googleログインの流れをまとめる
type AuthUsecase struct {
	accounts  repository.AccountRepository
	roles     repository.RoleRepository
	tx        repository.TransactionManager
	codes     *CodeStore
	devices   *DeviceRegistry
	sessions  *SessionStore
	hasher    PasswordHasher
	verifier  PasswordVerifier
	tokens    TokenIssuer
	totp      TotpEngine
	mailer    Mailer
	validator Validator
	clock     Clock
}

// DI
func NewAuthUsecase(d Deps) *AuthUsecase {
	return &AuthUsecase{
		accounts:  d.Accounts,
		roles:     d.Roles,
		tx:        d.Tx,
		codes:     d.Codes,
		devices:   d.Devices,
		sessions:  d.Sessions,
		hasher:    d.Hasher,
		verifier:  d.Verifier,
		tokens:    d.Tokens,
		totp:      d.Totp,
		mailer:    d.Mailer,
		validator: d.Validator,
		clock:     d.Clock,
	}
}

// 外に返すアカウント（passwordやsecretは含めない）
type AccountDTO struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PhoneNumber      string     `json:"phoneNumber"`
	Avatar           string     `json:"avatar"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	EmailVerifiedAt  *time.Time `json:"emailVerifiedAt"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	HasPassword      bool       `json:"hasPassword"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func NewAccountDTO(a *model.Account) AccountDTO {
	return AccountDTO{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		PhoneNumber:      a.PhoneNumber,
		Avatar:           a.Avatar,
		Role:             a.Role.Name,
		Status:           string(a.Status),
		EmailVerifiedAt:  a.EmailVerifiedAt,
		TwoFactorEnabled: a.TwoFactorEnabled,
		HasPassword:      a.HasPassword(),
		CreatedAt:        a.Timestamps.CreatedAt,
	}
}

// メッセージだけ返すフロー用
type MessageOutput struct {
	Message string `json:"message"`
}

// 認証済みの操作でアカウントを引く
func (u *AuthUsecase) loadAccount(ctx context.Context, accountID int64) (*model.Account, error) {
	a, err := u.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (u *AuthUsecase) Me(ctx context.Context, accountID int64) (AccountDTO, error) {
	a, err := u.loadAccount(ctx, accountID)
	if err != nil {
		return AccountDTO{}, err
	}
	return NewAccountDTO(a), nil
}
