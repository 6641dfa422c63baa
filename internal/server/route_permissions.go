package server

import (
	"ecauth/internal/domain/model"
	"ecauth/internal/usecase"
)

// 権限が必要なルート。"METHOD path" → 権限名（すべて必要）
const (
	RouteAdminListSessions = "GET /admin/users/:id/sessions"
	RouteAdminForceLogout  = "POST /admin/users/:id/force-logout"
	RouteAdminUpdateStatus = "PATCH /admin/users/:id/status"
	RouteAdminAuditLogs    = "GET /admin/audit-logs"
)

func RoutePermissions() usecase.RoutePermissions {
	return usecase.RoutePermissions{
		RouteAdminListSessions: {model.PermUsersRead},
		RouteAdminForceLogout:  {model.PermUsersUpdate},
		RouteAdminUpdateStatus: {model.PermUsersUpdate},
		RouteAdminAuditLogs:    {model.PermAuditLogsRead},
	}
}
