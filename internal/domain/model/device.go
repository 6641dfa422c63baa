package model

import "time"

// ログインに使われた端末。fingerprintは account+browser+os+ip のsha256。
type Device struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AccountID    int64     `json:"accountId" gorm:"not null;index"`
	Fingerprint  string    `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	DeviceName   string    `json:"deviceName" gorm:"not null;default:''"`
	DeviceType   string    `json:"deviceType" gorm:"type:varchar(20);not null;default:'desktop'"`
	Browser      string    `json:"browser" gorm:"not null;default:''"`
	OS           string    `json:"os" gorm:"column:os;not null;default:''"`
	IP           string    `json:"ip" gorm:"not null;default:''"`
	UserAgent    string    `json:"-" gorm:"not null;default:''"`
	LastActiveAt time.Time `json:"lastActiveAt" gorm:"not null;index"`
	IsActive     bool      `json:"isActive" gorm:"not null;default:true"`
	Timestamp    Timestamp `json:"timestamps" gorm:"embedded"`
}

// 一覧表示用。activeなセッション数を添える。
type DeviceSummary struct {
	Device
	ActiveSessionCount int64 `json:"activeSessionCount"`
}
