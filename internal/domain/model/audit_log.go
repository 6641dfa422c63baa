package model

import "time"

// 強制ログアウト、ステータス変更など。
type AuditAction string

const (
	//全セッションを強制的に無効化した操作。
	AuditActionForceLogout AuditAction = "FORCE_LOGOUT"
	//アカウントのステータス（ACTIVE/BLOCKED）を変更した操作。
	AuditActionUpdateAccountStatus AuditAction = "UPDATE_ACCOUNT_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	//アカウントに対する操作。
	AuditResourceAccount AuditResourceType = "account"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	//IDは監査ログの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したアカウント（主に管理者）のID。
	ActorAccountID int64 `gorm:"not null;index" json:"actor_account_id"`

	//Actionは操作の種類（FORCE_LOGOUT / UPDATE_ACCOUNT_STATUS）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID。
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
