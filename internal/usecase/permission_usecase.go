package usecase

import (
	"context"
	"errors"
	"fmt"

	"ecauth/internal/domain/model"
	repo "ecauth/internal/repository"
	auth "ecauth/internal/usecase/auth_usecase"
)

// route id → 必要な権限名（すべて必要）
type RoutePermissions map[string][]string

// ロールの権限でアクセス可否を判定する。
// ロールは毎回DBから読むので、権限を外せば次のリクエストから効く。
type PermissionResolver struct {
	roles  repo.RoleRepository
	routes RoutePermissions
}

// DI
func NewPermissionResolver(roles repo.RoleRepository, routes RoutePermissions) *PermissionResolver {
	if routes == nil {
		routes = RoutePermissions{}
	}
	return &PermissionResolver{roles: roles, routes: routes}
}

// requiredが空なら許可。1つでも欠けていればErrInsufficientPermissions
func (r *PermissionResolver) Check(ctx context.Context, p *model.Principal, required []string) error {
	if len(required) == 0 {
		return nil
	}
	if p == nil {
		return auth.ErrInvalidToken
	}

	role, err := r.roles.FindByID(ctx, p.RoleID)
	if err != nil {
		if errors.Is(err, repo.ErrRoleNotFound) {
			return auth.ErrInsufficientPermissions
		}
		return fmt.Errorf("load role: %w", err)
	}
	if !role.IsActive {
		return auth.ErrInsufficientPermissions
	}

	granted := make(map[string]struct{}, len(role.Permissions))
	for _, perm := range role.Permissions {
		granted[perm.Name] = struct{}{}
	}
	for _, name := range required {
		if _, ok := granted[name]; !ok {
			return auth.ErrInsufficientPermissions
		}
	}

	p.PermissionNames = role.PermissionNames()
	return nil
}

func (r *PermissionResolver) CheckRoute(ctx context.Context, p *model.Principal, routeID string) error {
	return r.Check(ctx, p, r.routes[routeID])
}

func (r *PermissionResolver) Required(routeID string) []string {
	return r.routes[routeID]
}
