package repository

import (
	"context"
	"testing"
	"time"

	"ecauth/internal/domain/model"
	repo "ecauth/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountGorm_CreateDuplicateEmail(t *testing.T) {
	gdb := newTestDB(t)
	r := NewAccountGormRepository(gdb)

	createAccount(t, gdb, "a@x.com")

	dup := &model.Account{Email: "a@x.com", Status: model.AccountStatusActive, RoleID: roleID(t, gdb, model.RoleNameUser)}
	err := r.Create(context.Background(), dup)
	assert.ErrorIs(t, err, repo.ErrEmailAlreadyExists)
}

func TestAccountGorm_FindPreloadsRole(t *testing.T) {
	gdb := newTestDB(t)
	r := NewAccountGormRepository(gdb)
	a := createAccount(t, gdb, "a@x.com")

	got, err := r.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, model.RoleNameUser, got.Role.Name)

	// ロールの権限まで読み込まれる
	require.NoError(t, gdb.Model(&model.Account{}).Where("id = ?", a.ID).Update("role_id", roleID(t, gdb, model.RoleNameManager)).Error)
	got, err = r.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Role.PermissionNames(), model.PermUsersRead)

	_, err = r.FindByID(context.Background(), 9999)
	assert.ErrorIs(t, err, repo.ErrAccountNotFound)
}

func TestAccountGorm_Updates(t *testing.T) {
	gdb := newTestDB(t)
	r := NewAccountGormRepository(gdb)
	a := createAccount(t, gdb, "a@x.com")
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.MarkEmailVerified(ctx, a.ID, now))
	require.NoError(t, r.UpdatePassword(ctx, a.ID, "new-hash"))
	secret := "JBSWY3DPEHPK3PXP"
	require.NoError(t, r.UpdateTwoFactor(ctx, a.ID, false, &secret))
	require.NoError(t, r.UpdateStatus(ctx, a.ID, model.AccountStatusBlocked))

	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified())
	assert.Equal(t, "new-hash", *got.PasswordHash)
	assert.True(t, got.HasPendingTOTP())
	assert.True(t, got.IsBlocked())

	require.NoError(t, r.UpdateTwoFactor(ctx, a.ID, false, nil))
	got, err = r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TOTPSecret)

	assert.ErrorIs(t, r.UpdateStatus(ctx, 9999, model.AccountStatusActive), repo.ErrAccountNotFound)
}

func TestAccountGorm_LinkGoogleID(t *testing.T) {
	gdb := newTestDB(t)
	r := NewAccountGormRepository(gdb)
	a := createAccount(t, gdb, "a@x.com")
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.LinkGoogleID(ctx, a.ID, "g-1", &now))

	got, err := r.FindByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.True(t, got.IsVerified())
}
