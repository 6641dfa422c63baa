package repository

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
)

// アカウントが見つかりませんを統一
var ErrAccountNotFound = errors.New("account not found")

// email（uniqueIndex）の重複
var ErrEmailAlreadyExists = errors.New("email already exists")

// 保存・取得を約束
type AccountRepository interface {
	//新規アカウント作成。email重複はErrEmailAlreadyExists
	Create(ctx context.Context, account *model.Account) error
	// IDからアカウントを1件取得する（Role付き）。
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	//メールからアカウントを一件取得する（Role付き）。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	//GoogleのsubjectIDから取得する。
	FindByGoogleID(ctx context.Context, googleID string) (*model.Account, error)
	//メール確認済みにする
	MarkEmailVerified(ctx context.Context, id int64, at time.Time) error
	//パスワードhashを差し替える
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	//2FAの状態を更新。secretがnilならクリア
	UpdateTwoFactor(ctx context.Context, id int64, enabled bool, secret *string) error
	//ACTIVE/BLOCKED
	UpdateStatus(ctx context.Context, id int64, status model.AccountStatus) error
	//GoogleIDを既存アカウントに紐付ける
	LinkGoogleID(ctx context.Context, id int64, googleID string, verifiedAt *time.Time) error
	//最終ログイン
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}
