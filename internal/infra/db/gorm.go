package db

import (
	"ecauth/internal/config"
	"ecauth/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if !cfg.IsProd() {
		level = logger.Info
	}

	// TranslateErrorでunique違反をgorm.ErrDuplicatedKeyに寄せる
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
}

// 認証まわりのテーブルを作る
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Permission{},
		&model.Role{},
		&model.Account{},
		&model.Device{},
		&model.Session{},
		&model.VerificationCode{},
		&model.AuditLog{},
	)
}
