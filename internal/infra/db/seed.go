package db

import (
	"ecauth/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedPermissions = []model.Permission{
	{Name: model.PermUsersRead, Description: "ユーザーの閲覧", Path: "/admin/users", Method: "GET"},
	{Name: model.PermUsersCreate, Description: "ユーザーの作成", Path: "/admin/users", Method: "POST"},
	{Name: model.PermUsersUpdate, Description: "ユーザーの更新", Path: "/admin/users", Method: "PATCH"},
	{Name: model.PermUsersDelete, Description: "ユーザーの削除", Path: "/admin/users", Method: "DELETE"},
	{Name: model.PermAuditLogsRead, Description: "監査ログの閲覧", Path: "/admin/audit-logs", Method: "GET"},
	{Name: model.PermProductsRead, Description: "商品の閲覧", Path: "/products", Method: "GET"},
	{Name: model.PermProductsWrite, Description: "商品の作成・更新", Path: "/products", Method: "PUT"},
	{Name: model.PermOrdersRead, Description: "注文の閲覧", Path: "/orders", Method: "GET"},
	{Name: model.PermOrdersUpdate, Description: "注文の更新", Path: "/orders", Method: "PUT"},
}

// roleごとの権限。adminは全部。
var seedRoles = []struct {
	role  model.Role
	perms []string
}{
	{
		role:  model.Role{Name: model.RoleNameAdmin, Description: "システム管理者", IsActive: true},
		perms: nil,
	},
	{
		role: model.Role{Name: model.RoleNameManager, Description: "店舗管理者", IsActive: true},
		perms: []string{
			model.PermUsersRead, model.PermProductsRead, model.PermProductsWrite, model.PermOrdersRead, model.PermOrdersUpdate,
		},
	},
	{
		role:  model.Role{Name: model.RoleNameUser, Description: "一般ユーザー", IsActive: true},
		perms: []string{},
	},
}

// Seed はロールと権限を入れる。何度呼んでも同じ状態になる。
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i := range seedPermissions {
			p := seedPermissions[i]
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"description", "path", "method"}),
			}).Create(&p).Error; err != nil {
				return err
			}
		}

		var all []model.Permission
		if err := tx.Find(&all).Error; err != nil {
			return err
		}
		byName := make(map[string]model.Permission, len(all))
		for _, p := range all {
			byName[p.Name] = p
		}

		for _, sr := range seedRoles {
			role := sr.role
			if err := tx.Where(model.Role{Name: role.Name}).
				Attrs(model.Role{Description: role.Description, IsActive: role.IsActive}).
				FirstOrCreate(&role).Error; err != nil {
				return err
			}

			perms := all
			if sr.perms != nil {
				perms = make([]model.Permission, 0, len(sr.perms))
				for _, name := range sr.perms {
					if p, ok := byName[name]; ok {
						perms = append(perms, p)
					}
				}
			}

			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return err
			}
		}
		return nil
	})
}
