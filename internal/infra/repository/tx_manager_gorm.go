package repository

import (
	"context"

	repo "ecauth/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	accounts  repo.AccountRepository
	sessions  repo.SessionRepository
	codes     repo.VerificationCodeRepository
	auditLogs repo.AuditLogRepository
}

func (r *txReposGorm) Accounts() repo.AccountRepository       { return r.accounts }
func (r *txReposGorm) Sessions() repo.SessionRepository       { return r.sessions }
func (r *txReposGorm) Codes() repo.VerificationCodeRepository { return r.codes }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			accounts:  NewAccountGormRepository(tx),
			sessions:  NewSessionGormRepository(tx),
			codes:     NewVerificationCodeGormRepository(tx),
			auditLogs: NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
