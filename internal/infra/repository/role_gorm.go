package repository

import (
	"context"
	"errors"

	"ecauth/internal/domain/model"
	repo "ecauth/internal/repository"

	"gorm.io/gorm"
)

type roleGormRepository struct {
	db *gorm.DB
}

func NewRoleGormRepository(db *gorm.DB) repo.RoleRepository {
	return &roleGormRepository{db: db}
}

func (r *roleGormRepository) FindByID(ctx context.Context, id int64) (*model.Role, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *roleGormRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	return r.findOne(ctx, "name = ?", name)
}

// Permissions付きで1件
func (r *roleGormRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Role, error) {
	var role model.Role

	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where(query, arg).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}
