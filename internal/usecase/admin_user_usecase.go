package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ecauth/internal/domain/model"
	repo "ecauth/internal/repository"
	auth "ecauth/internal/usecase/auth_usecase"

	"github.com/labstack/gommon/log"
)

// 管理者によるアカウントのセキュリティ操作
type AdminUserUsecase struct {
	tx       repo.TransactionManager
	accounts repo.AccountRepository
	sessions repo.SessionRepository
	audits   repo.AuditLogRepository
	clock    auth.Clock
}

// DI
func NewAdminUserUsecase(
	tx repo.TransactionManager,
	accounts repo.AccountRepository,
	sessions repo.SessionRepository,
	audits repo.AuditLogRepository,
	clock auth.Clock,
) *AdminUserUsecase {
	return &AdminUserUsecase{tx: tx, accounts: accounts, sessions: sessions, audits: audits, clock: clock}
}

type ForceLogoutOutput struct {
	AccountID       int64 `json:"accountId"`
	RevokedSessions int64 `json:"revokedSessions"`
}

type UpdateAccountStatusInput struct {
	Status string
}

type AccountStatusOutput struct {
	AccountID       int64  `json:"accountId"`
	Status          string `json:"status"`
	RevokedSessions int64  `json:"revokedSessions"`
}

type AuditLogListInput struct {
	ActorAccountID int64
	Action         string
	ResourceID     int64
	Page           int
	Limit          int
}

func (u *AdminUserUsecase) ListSessions(ctx context.Context, accountID int64) ([]auth.SessionDTO, error) {
	if accountID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := u.accounts.FindByID(ctx, accountID); err != nil {
		if errors.Is(err, repo.ErrAccountNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "account not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	sessions, err := u.sessions.ListActiveByAccountID(ctx, accountID, u.clock.Now())
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out := make([]auth.SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, auth.NewSessionDTO(s))
	}
	return out, nil
}

// 対象の全セッションを無効化して監査ログを残す
func (u *AdminUserUsecase) ForceLogout(ctx context.Context, actorID, accountID int64) (ForceLogoutOutput, error) {
	if actorID <= 0 {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if accountID <= 0 {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var revoked int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Accounts().FindByID(ctx, accountID); err != nil {
			if errors.Is(err, repo.ErrAccountNotFound) {
				return NewHTTPError(http.StatusNotFound, "account not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		n, err := r.Sessions().DeactivateAllByAccountID(ctx, accountID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		revoked = n

		return u.writeAudit(ctx, r, actorID, model.AuditActionForceLogout, accountID,
			nil, map[string]any{"revokedSessions": n})
	})
	if err != nil {
		return ForceLogoutOutput{}, err
	}

	log.Infoj(log.JSON{"msg": "force logout", "actor_id": actorID, "account_id": accountID, "sessions_revoked": revoked})
	return ForceLogoutOutput{AccountID: accountID, RevokedSessions: revoked}, nil
}

// BLOCKEDにしたときは全セッションも無効化する
func (u *AdminUserUsecase) UpdateStatus(ctx context.Context, actorID, accountID int64, in UpdateAccountStatusInput) (AccountStatusOutput, error) {
	if actorID <= 0 {
		return AccountStatusOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if accountID <= 0 {
		return AccountStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if actorID == accountID {
		return AccountStatusOutput{}, NewHTTPError(http.StatusBadRequest, "cannot change own status")
	}

	newStatus := model.AccountStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	switch newStatus {
	case model.AccountStatusActive, model.AccountStatusBlocked:
	default:
		return AccountStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	out := AccountStatusOutput{AccountID: accountID, Status: string(newStatus)}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		a, err := r.Accounts().FindByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, repo.ErrAccountNotFound) {
				return NewHTTPError(http.StatusNotFound, "account not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 同じなら何もしない
		if a.Status == newStatus {
			return nil
		}

		if err := r.Accounts().UpdateStatus(ctx, accountID, newStatus); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if newStatus == model.AccountStatusBlocked {
			n, err := r.Sessions().DeactivateAllByAccountID(ctx, accountID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out.RevokedSessions = n
		}

		return u.writeAudit(ctx, r, actorID, model.AuditActionUpdateAccountStatus, accountID,
			map[string]any{"status": a.Status}, map[string]any{"status": newStatus})
	})
	if err != nil {
		return AccountStatusOutput{}, err
	}
	return out, nil
}

func (u *AdminUserUsecase) ListAuditLogs(ctx context.Context, in AuditLogListInput) ([]model.AuditLog, error) {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	if in.Page < 1 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	f := repo.AuditLogFilter{
		Limit:  in.Limit,
		Offset: (in.Page - 1) * in.Limit,
	}
	if in.ActorAccountID > 0 {
		f.ActorAccountID = &in.ActorAccountID
	}
	if in.ResourceID > 0 {
		f.ResourceID = &in.ResourceID
	}
	if a := strings.TrimSpace(in.Action); a != "" {
		action := model.AuditAction(strings.ToUpper(a))
		f.Action = &action
	}

	logs, err := u.audits.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

func (u *AdminUserUsecase) writeAudit(ctx context.Context, r repo.TxRepos, actorID int64, action model.AuditAction, accountID int64, before, after map[string]any) error {
	entry := model.AuditLog{
		ActorAccountID: actorID,
		Action:         action,
		ResourceType:   model.AuditResourceAccount,
		ResourceID:     accountID,
		BeforeJSON:     toJSON(before),
		AfterJSON:      toJSON(after),
		CreatedAt:      u.clock.Now(),
	}
	if err := r.AuditLogs().Create(ctx, entry); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toJSON(v map[string]any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

