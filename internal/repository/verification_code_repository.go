package repository

import (
	"context"
	"errors"
	"time"

	"ecauth/internal/domain/model"
)

var ErrVerificationCodeNotFound = errors.New("verification code not found")

// since以降に発行済みのコードがあって差し替えできなかった
var ErrCodeRecentlyIssued = errors.New("verification code recently issued")

type VerificationCodeRepository interface {
	// 同じ(email, purpose)のコードを消して新しいコードを保存する（1トランザクション）
	Replace(ctx context.Context, code *model.VerificationCode) error
	// since以降に作られたコードがあればErrCodeRecentlyIssued。なければReplaceと同じ
	ReplaceUnlessRecent(ctx context.Context, code *model.VerificationCode, since time.Time) error
	// 期限内で3つとも一致するコード
	FindValid(ctx context.Context, email string, code string, purpose model.CodePurpose, now time.Time) (*model.VerificationCode, error)
	ExistsCreatedSince(ctx context.Context, email string, purpose model.CodePurpose, since time.Time) (bool, error)
	// 期限内で一致する行を消す。消せなければErrVerificationCodeNotFound（同時に使われた側が負ける）
	ConsumeValid(ctx context.Context, email string, code string, purpose model.CodePurpose, now time.Time) error
	DeleteByEmailAndPurpose(ctx context.Context, email string, purpose model.CodePurpose) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
