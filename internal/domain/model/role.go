package model

// 既定ロール名
const (
	RoleNameAdmin   = "admin"
	RoleNameManager = "manager"
	RoleNameUser    = "user"
)

// 権限名（route_permissionsとseedで使う）
const (
	PermUsersRead     = "users:read"
	PermUsersCreate   = "users:create"
	PermUsersUpdate   = "users:update"
	PermUsersDelete   = "users:delete"
	PermAuditLogsRead = "audit_logs:read"
	PermProductsRead  = "products:read"
	PermProductsWrite = "products:write"
	PermOrdersRead    = "orders:read"
	PermOrdersUpdate  = "orders:update"
)

type Role struct {
	ID          int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string       `json:"name" gorm:"uniqueIndex;not null"`
	Description string       `json:"description" gorm:"not null;default:''"`
	IsActive    bool         `json:"isActive" gorm:"not null;default:true"`
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions;"`
}

// PermissionはHTTPパス+メソッドを守る権限。
type Permission struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"not null;default:''"`
	Path        string `json:"path" gorm:"not null"`
	Method      string `json:"method" gorm:"type:varchar(10);not null"`
}

func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}
