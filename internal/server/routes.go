package server

import (
	"ecauth/internal/handler"
	"ecauth/internal/middleware"
	"ecauth/internal/repository"
	"ecauth/internal/usecase"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Admin  *handler.AdminUserHandler
	Health *handler.HealthHandler
}

type Guards struct {
	Tokens      middleware.AccessTokenVerifier
	Accounts    repository.AccountRepository
	Permissions *usecase.PermissionResolver
}

func RegisterRoutes(e *echo.Echo, h Handlers, g Guards) {
	e.GET("/healthz", h.Health.Healthz)

	// 認証なし
	a := e.Group("/auth")
	a.POST("/register", h.Auth.Register)
	a.POST("/verify-email", h.Auth.VerifyEmail)
	a.POST("/resend-verification", h.Auth.ResendVerification)
	a.POST("/forgot-password", h.Auth.ForgotPassword)
	a.POST("/reset-password", h.Auth.ResetPassword)
	a.POST("/login", h.Auth.Login)
	a.POST("/2fa/login", h.Auth.Login2FA)
	a.POST("/refresh", h.Auth.Refresh)
	a.GET("/google", h.Auth.GoogleRedirect)
	a.GET("/google/callback", h.Auth.GoogleCallback)

	// JWT必須 + アカウント状態チェック
	authed := []echo.MiddlewareFunc{
		middleware.AuthJWT(g.Tokens),
		middleware.AccountStatusGuard(g.Accounts),
	}
	me := e.Group("/auth", authed...)
	me.GET("/me", h.Auth.Me)
	me.GET("/profile", h.Auth.Me)
	me.GET("/sessions", h.Auth.ListSessions)
	me.DELETE("/sessions", h.Auth.LogoutAll)
	me.DELETE("/sessions/:refreshToken", h.Auth.Logout)
	me.GET("/devices", h.Auth.ListDevices)
	me.DELETE("/devices/:deviceId", h.Auth.RevokeDevice)
	me.POST("/2fa/setup", h.Auth.Setup2FA)
	me.POST("/2fa/verify", h.Auth.Verify2FA)
	me.DELETE("/2fa/disable", h.Auth.Disable2FA)
	me.GET("/2fa/status", h.Auth.TwoFactorStatus)

	// /admin 配下は権限をルートごとに確認する
	perm := func(routeID string) echo.MiddlewareFunc {
		return middleware.RequirePermissions(g.Permissions, routeID)
	}
	admin := e.Group("/admin", authed...)
	admin.GET("/users/:id/sessions", h.Admin.ListSessions, perm(RouteAdminListSessions))
	admin.POST("/users/:id/force-logout", h.Admin.ForceLogout, perm(RouteAdminForceLogout))
	admin.PATCH("/users/:id/status", h.Admin.UpdateStatus, perm(RouteAdminUpdateStatus))
	admin.GET("/audit-logs", h.Admin.ListAuditLogs, perm(RouteAdminAuditLogs))
}
