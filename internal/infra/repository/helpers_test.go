package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"ecauth/internal/domain/model"
	"ecauth/internal/infra/db"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// テストごとに別のインメモリDB
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(gdb))
	return gdb
}

func roleID(t *testing.T, gdb *gorm.DB, name string) int64 {
	t.Helper()
	var r model.Role
	require.NoError(t, gdb.Where("name = ?", name).First(&r).Error)
	return r.ID
}

func createAccount(t *testing.T, gdb *gorm.DB, email string) *model.Account {
	t.Helper()
	hash := "hash"
	a := &model.Account{
		Email:        email,
		PasswordHash: &hash,
		Status:       model.AccountStatusActive,
		RoleID:       roleID(t, gdb, model.RoleNameUser),
	}
	require.NoError(t, NewAccountGormRepository(gdb).Create(context.Background(), a))
	return a
}
