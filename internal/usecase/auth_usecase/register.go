package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"
)

// 会員登録の入力
type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	PhoneNumber string
}

type RegisterOutput struct {
	Account AccountDTO `json:"user"`
	Message string     `json:"message"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// 会員登録。アカウントを作ってから確認コードを発行する
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (RegisterOutput, error) {
	var out RegisterOutput

	if err := u.validator.ValidateRegister(ctx, in); err != nil {
		return out, err
	}
	email := normalizeEmail(in.Email)

	// 事前チェック。最終的にはuniqueIndexが止める
	if _, err := u.accounts.FindByEmail(ctx, email); err == nil {
		return out, ErrEmailAlreadyExists
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return out, err
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	role, err := u.roles.FindByName(ctx, model.RoleNameUser)
	if err != nil {
		return out, fmt.Errorf("default role: %w", err)
	}

	account := &model.Account{
		Email:        email,
		PasswordHash: &hashed,
		Name:         strings.TrimSpace(in.Name),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Status:       model.AccountStatusActive,
		RoleID:       role.ID,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailAlreadyExists) {
			return out, ErrEmailAlreadyExists
		}
		return out, err
	}
	account.Role = *role

	if err := u.codes.Invalidate(ctx, email, model.CodePurposeRegister); err != nil {
		return out, err
	}
	code, err := u.codes.Issue(ctx, email, model.CodePurposeRegister)
	if err != nil {
		return out, err
	}
	if err := u.mailer.SendVerificationCode(ctx, email, code, u.codes.TTL()); err != nil {
		return out, fmt.Errorf("send verification code: %w", err)
	}

	out.Account = NewAccountDTO(account)
	out.Message = "Registration successful. Please check your email for the verification code."
	return out, nil
}

// 登録コードを確認する。確認済みなら何もせず成功を返す
func (u *AuthUsecase) VerifyEmail(ctx context.Context, email, code string) (MessageOutput, error) {
	if err := u.validator.ValidateVerifyEmail(ctx, email, code); err != nil {
		return MessageOutput{}, err
	}
	email = normalizeEmail(email)

	ok, err := u.codes.Consume(ctx, email, code, model.CodePurposeRegister)
	if err != nil {
		return MessageOutput{}, err
	}

	account, err := u.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			if !ok {
				return MessageOutput{}, ErrInvalidCode
			}
			return MessageOutput{}, ErrAccountNotFound
		}
		return MessageOutput{}, err
	}

	// 確認済みならコードが消えていても成功扱い
	if account.IsVerified() {
		if err := u.codes.Invalidate(ctx, email, model.CodePurposeRegister); err != nil {
			return MessageOutput{}, err
		}
		return MessageOutput{Message: "Email is already verified"}, nil
	}
	if !ok {
		return MessageOutput{}, ErrInvalidCode
	}

	if err := u.accounts.MarkEmailVerified(ctx, account.ID, u.clock.Now()); err != nil {
		return MessageOutput{}, err
	}
	if err := u.codes.Invalidate(ctx, email, model.CodePurposeRegister); err != nil {
		return MessageOutput{}, err
	}
	return MessageOutput{Message: "Email verified successfully"}, nil
}

// 確認コードの再送。60秒以内の再送はErrTooManyRequests
func (u *AuthUsecase) ResendVerification(ctx context.Context, email string) (MessageOutput, error) {
	if err := u.validator.ValidateEmail(ctx, email); err != nil {
		return MessageOutput{}, err
	}
	email = normalizeEmail(email)

	account, err := u.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return MessageOutput{}, ErrAccountNotFound
		}
		return MessageOutput{}, err
	}
	if account.IsVerified() {
		return MessageOutput{Message: "Email is already verified"}, nil
	}

	code, err := u.codes.IssueThrottled(ctx, email, model.CodePurposeRegister)
	if err != nil {
		return MessageOutput{}, err
	}
	if err := u.mailer.SendVerificationCode(ctx, email, code, u.codes.TTL()); err != nil {
		return MessageOutput{}, fmt.Errorf("send verification code: %w", err)
	}
	return MessageOutput{Message: "Verification code sent"}, nil
}
