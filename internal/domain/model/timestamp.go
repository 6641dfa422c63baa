package model

import "time"

// 各テーブル共通の作成・更新時刻
type Timestamp struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
