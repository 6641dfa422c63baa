package middleware

import (
	"errors"

	"ecauth/internal/domain/model"
	"ecauth/internal/repository"
	auth "ecauth/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// トークンが有効でもアカウントが消えた・停止された場合はここで止める。
// 通ればPrincipalをcontextに入れる。
func AccountStatusGuard(accounts repository.AccountRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたclaimsを取得する
			claims, ok := Claims(c)
			if !ok || claims.AccountID <= 0 {
				return auth.ErrInvalidToken
			}

			//DBから最新のアカウントを取得する
			a, err := accounts.FindByID(c.Request().Context(), claims.AccountID)
			if err != nil {
				if errors.Is(err, repository.ErrAccountNotFound) {
					return auth.ErrInvalidToken
				}
				return err
			}
			if a.IsBlocked() {
				return auth.ErrAccountBlocked
			}

			c.Set(CtxPrincipalKey, &model.Principal{
				ID:              a.ID,
				Email:           a.Email,
				RoleID:          a.RoleID,
				Role:            a.Role.Name,
				PermissionNames: a.Role.PermissionNames(),
			})
			return next(c)
		}
	}
}
