package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecauth/internal/config"
	"ecauth/internal/handler"
	"ecauth/internal/infra/cache"
	"ecauth/internal/infra/db"
	"ecauth/internal/infra/mailer"
	"ecauth/internal/infra/oauth"
	infraRepo "ecauth/internal/infra/repository"
	"ecauth/internal/infra/token"
	"ecauth/internal/infra/totp"
	"ecauth/internal/server"
	"ecauth/internal/usecase"
	auth "ecauth/internal/usecase/auth_usecase"
	"ecauth/internal/validator"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now().UTC()
}

func main() {
	// .envは無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil {
		log.Infoj(log.JSON{"msg": ".env not loaded", "error": err.Error()})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalj(log.JSON{"msg": "config", "error": err.Error()})
	}
	if cfg.IsProd() {
		log.SetLevel(log.INFO)
	} else {
		log.SetLevel(log.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalj(log.JSON{"msg": "db connect", "error": err.Error()})
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalj(log.JSON{"msg": "db migrate", "error": err.Error()})
	}
	if err := db.Seed(gormDB); err != nil {
		log.Fatalj(log.JSON{"msg": "db seed", "error": err.Error()})
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalj(log.JSON{"msg": "db handle", "error": err.Error()})
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	accountRepo := infraRepo.NewAccountGormRepository(gormDB)
	roleRepo := infraRepo.NewRoleGormRepository(gormDB)
	codeRepo := infraRepo.NewVerificationCodeGormRepository(gormDB)
	deviceRepo := infraRepo.NewDeviceGormRepository(gormDB)
	sessionRepo := infraRepo.NewSessionGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	clock := &realClock{}

	// Redisがあれば再送制限を前段で止める
	var throttle auth.ResendThrottle
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalj(log.JSON{"msg": "redis", "error": err.Error()})
		}
		defer rdb.Close()
		throttle = cache.NewRedisResendThrottle(rdb)
	}

	// SMTP未設定ならログに出すだけ
	var mail auth.Mailer
	if cfg.SMTPEnabled() {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.FromEmail,
		})
	} else {
		log.Warnj(log.JSON{"msg": "SMTP not configured; mails are logged"})
		mail = mailer.NewLogMailer(log.New("mailer"))
	}

	var google handler.GoogleOAuth
	if cfg.GoogleEnabled() {
		google = oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		})
	}

	tokens := token.NewJWTIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTExpiresIn, cfg.JWTRefreshTTL, clock)
	codes := auth.NewCodeStore(codeRepo, throttle, clock, cfg.OTPExpiresIn, cfg.OTPResendThrottle)

	//Usecase生成
	authUC := auth.NewAuthUsecase(auth.Deps{
		Accounts: accountRepo,
		Roles:    roleRepo,
		Tx:       txm,
		Codes:    codes,
		Devices:  auth.NewDeviceRegistry(deviceRepo, clock),
		Sessions: auth.NewSessionStore(sessionRepo, clock),
		Hasher:   auth.NewBcryptPasswordHasher(cfg.BcryptRounds),
		Verifier: auth.NewBcryptPasswordVerifier(),
		Tokens:   tokens,
		Totp: totp.NewEngine(totp.Config{
			Issuer: cfg.TOTPIssuer,
			Digits: cfg.TOTPDigits,
			Period: cfg.TOTPPeriod,
			Window: cfg.TOTPWindow,
		}),
		Mailer:    mail,
		Validator: validator.NewAuthValidator(cfg.TOTPDigits),
		Clock:     clock,
	})
	adminUC := usecase.NewAdminUserUsecase(txm, accountRepo, sessionRepo, auditRepo, clock)
	resolver := usecase.NewPermissionResolver(roleRepo, server.RoutePermissions())

	//Handler生成
	e := server.New(cfg.Timeout, server.Handlers{
		Auth:   handler.NewAuthHandler(authUC, google, cfg.FEURL, cfg.IsProd()),
		Admin:  handler.NewAdminUserHandler(adminUC),
		Health: handler.NewHealthHandler(sqlDB),
	}, server.Guards{
		Tokens:      tokens,
		Accounts:    accountRepo,
		Permissions: resolver,
	})

	if cfg.CodeCleanupInterval > 0 {
		go purgeExpiredCodes(ctx, codes, cfg.CodeCleanupInterval)
	}

	//Server起動
	if err := server.Start(ctx, e, ":"+cfg.Port); err != nil {
		log.Fatalj(log.JSON{"msg": "server", "error": err.Error()})
	}
	log.Infoj(log.JSON{"msg": "server stopped"})
}

// 期限切れコードを定期的に消す。検証は読み取り時に期限を見るので掃除は任意
func purgeExpiredCodes(ctx context.Context, codes *auth.CodeStore, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := codes.PurgeExpired(ctx)
			if err != nil {
				log.Warnj(log.JSON{"msg": "purge expired codes", "error": err.Error()})
				continue
			}
			if n > 0 {
				log.Infoj(log.JSON{"msg": "purged expired codes", "count": n})
			}
		}
	}
}
