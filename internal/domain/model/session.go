package model

import "time"

// refreshトークンに紐づくログインセッション。
// トークンは平文で持たずsha256のhashだけ保存する。
type Session struct {
	ID               int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AccountID        int64     `json:"accountId" gorm:"not null;index"`
	DeviceID         int64     `json:"deviceId" gorm:"not null;index"`
	Device           *Device   `json:"device,omitempty" gorm:"foreignKey:DeviceID"`
	AccessTokenHash  string    `json:"-" gorm:"not null"`
	RefreshTokenHash string    `json:"-" gorm:"not null;uniqueIndex"`
	IP               string    `json:"ip" gorm:"not null;default:''"`
	UserAgent        string    `json:"userAgent" gorm:"not null;default:''"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null;index"`
	LastUsedAt       time.Time `json:"lastUsedAt" gorm:"not null"`
	IsActive         bool      `json:"isActive" gorm:"not null;default:true;index"`
	Timestamp        Timestamp `json:"timestamps" gorm:"embedded"`
}

// active かつ期限内のときだけ使える
func (s *Session) Usable(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
