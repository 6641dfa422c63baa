package middleware

import (
	"context"

	"ecauth/internal/domain/model"
	auth "ecauth/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type PermissionChecker interface {
	CheckRoute(ctx context.Context, p *model.Principal, routeID string) error
}

// routeIDに必要な権限をロールが全部持っているか確認する。
// AccountStatusGuardの後に置く。
func RequirePermissions(checker PermissionChecker, routeID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return auth.ErrInvalidToken
			}
			if err := checker.CheckRoute(c.Request().Context(), p, routeID); err != nil {
				return err
			}
			return next(c)
		}
	}
}
