package repository

import (
	"context"
	"errors"

	"ecauth/internal/domain/model"
)

var ErrRoleNotFound = errors.New("role not found")

// ロールと権限（参照データ）の取得
type RoleRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
}
