package auth

import (
	"context"
	"errors"
	"fmt"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"

	"github.com/labstack/gommon/log"
)

// emailの有無が分からないよう常に同じ文言
const forgotPasswordMessage = "If the email exists, a password reset code has been sent"

type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// 存在しない・パスワードなし・停止中でも同じ成功を返す
func (u *AuthUsecase) ForgotPassword(ctx context.Context, email string) (MessageOutput, error) {
	generic := MessageOutput{Message: forgotPasswordMessage}

	if err := u.validator.ValidateEmail(ctx, email); err != nil {
		return MessageOutput{}, err
	}
	email = normalizeEmail(email)

	account, err := u.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return generic, nil
		}
		return MessageOutput{}, err
	}
	if !account.HasPassword() || account.IsBlocked() {
		return generic, nil
	}

	code, err := u.codes.IssueThrottled(ctx, email, model.CodePurposeResetPassword)
	if err != nil {
		// 429を返すと実在するアカウントだと分かってしまう
		if errors.Is(err, ErrTooManyRequests) {
			log.Infoj(log.JSON{"msg": "password reset throttled", "account_id": account.ID})
			return generic, nil
		}
		return MessageOutput{}, err
	}
	if err := u.mailer.SendPasswordResetCode(ctx, email, code, u.codes.TTL()); err != nil {
		return MessageOutput{}, fmt.Errorf("send reset code: %w", err)
	}
	return generic, nil
}

// パスワード更新・コード削除・全セッション無効化を1トランザクションで行う
func (u *AuthUsecase) ResetPassword(ctx context.Context, in ResetPasswordInput) (MessageOutput, error) {
	if err := u.validator.ValidateResetPassword(ctx, in); err != nil {
		return MessageOutput{}, err
	}
	email := normalizeEmail(in.Email)

	ok, err := u.codes.Consume(ctx, email, in.Code, model.CodePurposeResetPassword)
	if err != nil {
		return MessageOutput{}, err
	}
	if !ok {
		return MessageOutput{}, ErrInvalidCode
	}

	account, err := u.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return MessageOutput{}, ErrAccountNotFound
		}
		return MessageOutput{}, err
	}
	if !account.HasPassword() {
		return MessageOutput{}, ErrPasswordNotSet
	}
	if account.IsBlocked() {
		return MessageOutput{}, ErrAccountBlocked
	}

	hashed, err := u.hasher.Hash(in.NewPassword)
	if err != nil {
		return MessageOutput{}, err
	}

	var revoked int64
	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		// コードを消せた1リクエストだけが進める
		if err := r.Codes().ConsumeValid(ctx, email, in.Code, model.CodePurposeResetPassword, u.clock.Now()); err != nil {
			if errors.Is(err, repository.ErrVerificationCodeNotFound) {
				return ErrInvalidCode
			}
			return err
		}
		if err := r.Accounts().UpdatePassword(ctx, account.ID, hashed); err != nil {
			return err
		}
		n, err := r.Sessions().DeactivateAllByAccountID(ctx, account.ID)
		if err != nil {
			return err
		}
		revoked = n
		return nil
	})
	if err != nil {
		return MessageOutput{}, err
	}

	log.Infoj(log.JSON{"msg": "password reset", "account_id": account.ID, "sessions_revoked": revoked})

	// 通知は失敗してもリセット自体は完了している
	if err := u.mailer.SendPasswordChanged(ctx, email); err != nil {
		log.Errorj(log.JSON{"msg": "password changed notification failed", "account_id": account.ID, "error": err.Error()})
	}
	return MessageOutput{Message: "Password has been reset. Please log in again."}, nil
}
