package model

// 認証ミドルウェアがリクエストに付ける主体。
// PermissionNamesはロールに付いた権限名。権限チェック時に最新のロールで上書きされる。
type Principal struct {
	ID              int64    `json:"id"`
	Email           string   `json:"email"`
	RoleID          int64    `json:"roleId"`
	Role            string   `json:"role"`
	PermissionNames []string `json:"permissions,omitempty"`
}
