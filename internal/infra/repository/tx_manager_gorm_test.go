package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecauth/internal/domain/model"
	repo "ecauth/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManagerGorm_RollbackOnError(t *testing.T) {
	gdb := newTestDB(t)
	a := createAccount(t, gdb, "a@x.com")
	tm := NewTxManagerGorm(gdb)
	boom := errors.New("boom")

	err := tm.WithinTx(context.Background(), func(r repo.TxRepos) error {
		if err := r.Accounts().UpdatePassword(context.Background(), a.ID, "changed"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := NewAccountGormRepository(gdb).FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", *got.PasswordHash)
}

func TestTxManagerGorm_Commit(t *testing.T) {
	gdb := newTestDB(t)
	a := createAccount(t, gdb, "a@x.com")
	tm := NewTxManagerGorm(gdb)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := tm.WithinTx(context.Background(), func(r repo.TxRepos) error {
		if err := r.Accounts().UpdatePassword(context.Background(), a.ID, "changed"); err != nil {
			return err
		}
		return r.AuditLogs().Create(context.Background(), model.AuditLog{
			ActorAccountID: a.ID,
			Action:         model.AuditActionForceLogout,
			ResourceType:   model.AuditResourceAccount,
			ResourceID:     a.ID,
			CreatedAt:      now,
		})
	})
	require.NoError(t, err)

	logs, err := NewAuditLogGormRepository(gdb).List(context.Background(), repo.AuditLogFilter{ResourceID: &a.ID})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRoleGorm_PermissionsSeeded(t *testing.T) {
	gdb := newTestDB(t)
	r := NewRoleGormRepository(gdb)

	admin, err := r.FindByName(context.Background(), model.RoleNameAdmin)
	require.NoError(t, err)
	assert.Contains(t, admin.PermissionNames(), model.PermUsersUpdate)
	assert.Contains(t, admin.PermissionNames(), model.PermAuditLogsRead)

	manager, err := r.FindByName(context.Background(), model.RoleNameManager)
	require.NoError(t, err)
	assert.Contains(t, manager.PermissionNames(), model.PermUsersRead)
	assert.NotContains(t, manager.PermissionNames(), model.PermUsersUpdate)

	user, err := r.FindByID(context.Background(), roleID(t, gdb, model.RoleNameUser))
	require.NoError(t, err)
	assert.Empty(t, user.Permissions)

	_, err = r.FindByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, repo.ErrRoleNotFound)
}
