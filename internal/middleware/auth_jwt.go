package middleware

import (
	"strings"

	"ecauth/internal/domain/model"
	auth "ecauth/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const (
	CtxClaimsKey    = "claims"    // *model.TokenClaims
	CtxPrincipalKey = "principal" // *model.Principal
)

// accessトークンの検証だけできればよい
type AccessTokenVerifier interface {
	Verify(token string, class model.TokenClass) (*model.TokenClaims, error)
}

// bearerAuth用のJWT検証ミドルウェア。
// エラーはechoのHTTPErrorHandlerで共通の形に変換される。
func AuthJWT(tokens AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Bearer形式か確認してtokenを抜く
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return auth.ErrInvalidToken
			}

			//2FA待ち・refreshはここで弾かれる
			claims, err := tokens.Verify(raw, model.TokenClassAccess)
			if err != nil || claims.AccountID <= 0 {
				return auth.ErrInvalidToken
			}

			c.Set(CtxClaimsKey, claims)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

// AuthJWTが入れたclaims
func Claims(c echo.Context) (*model.TokenClaims, bool) {
	claims, ok := c.Get(CtxClaimsKey).(*model.TokenClaims)
	return claims, ok && claims != nil
}

// AccountStatusGuardが入れた主体
func CurrentPrincipal(c echo.Context) (*model.Principal, bool) {
	p, ok := c.Get(CtxPrincipalKey).(*model.Principal)
	return p, ok && p != nil
}

// 認証済みアカウントのID（ガードの後でのみ使う）
func AccountID(c echo.Context) int64 {
	if p, ok := CurrentPrincipal(c); ok {
		return p.ID
	}
	if claims, ok := Claims(c); ok {
		return claims.AccountID
	}
	return 0
}
