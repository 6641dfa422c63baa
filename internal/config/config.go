package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あればPOSTGRES_*より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	RedisURL string // 空ならresend制限はDBだけで行う

	JWTSecret        string        // access署名シークレット
	JWTExpiresIn     time.Duration // access有効期限（15m）
	JWTRefreshSecret string        // refresh署名シークレット（accessとは別）
	JWTRefreshTTL    time.Duration // refresh有効期限（7d）

	BcryptRounds int

	OTPExpiresIn      time.Duration // 確認コードの有効期限（300s）
	OTPResendThrottle time.Duration // 再送の間隔（60s）

	TOTPIssuer string
	TOTPDigits int
	TOTPPeriod int // 秒
	TOTPWindow int // 前後何ステップまで許すか

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	GoEnv   string        // dev/prod
	FEURL   string        // フロントURL（OAuthのリダイレクト先）
	Timeout time.Duration // リクエストのタイムアウト

	CodeCleanupInterval time.Duration // 0なら期限切れコードの掃除をしない
}

// Loadは環境変数
func Load() (Config, error) {
	var err error
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "ecauth"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),

		TOTPIssuer: getenv("TOTP_ISSUER", "E-Commerce"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  getenv("GOOGLE_CALLBACK_URL", "http://localhost:8080/auth/google/callback"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		FromEmail: os.Getenv("FROM_EMAIL"),

		GoEnv: getenv("GO_ENV", "dev"),
		FEURL: getenv("FE_URL", "http://localhost:3000"),
	}

	if cfg.PostgresPort, err = atoiDefault("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.JWTExpiresIn, err = durationDefault("JWT_EXPIRES_IN", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.JWTRefreshTTL, err = durationDefault("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.BcryptRounds, err = atoiDefault("BCRYPT_ROUNDS", 12); err != nil {
		return Config{}, err
	}
	if cfg.OTPExpiresIn, err = durationDefault("OTP_EXPIRES_IN", 300*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.OTPResendThrottle, err = durationDefault("OTP_RESEND_THROTTLE", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TOTPDigits, err = atoiDefault("TOTP_DIGITS", 6); err != nil {
		return Config{}, err
	}
	if cfg.TOTPPeriod, err = atoiDefault("TOTP_PERIOD", 30); err != nil {
		return Config{}, err
	}
	if cfg.TOTPWindow, err = atoiDefault("TOTP_WINDOW", 1); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = atoiDefault("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.Timeout, err = durationDefault("TIMEOUT_MS", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CodeCleanupInterval, err = durationDefault("CODE_CLEANUP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return Config{}, fmt.Errorf("JWT_REFRESH_SECRET must differ from JWT_SECRET")
	}
	if cfg.BcryptRounds < 4 || cfg.BcryptRounds > 31 {
		return Config{}, fmt.Errorf("BCRYPT_ROUNDS must be between 4 and 31")
	}
	if cfg.TOTPDigits != 6 && cfg.TOTPDigits != 8 {
		return Config{}, fmt.Errorf("TOTP_DIGITS must be 6 or 8")
	}
	if cfg.TOTPPeriod <= 0 || cfg.TOTPWindow < 0 {
		return Config{}, fmt.Errorf("TOTP_PERIOD must be positive and TOTP_WINDOW non-negative")
	}

	return cfg, nil
}

// DSNはgorm(postgres)用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// SMTPが揃っていれば実際に送る
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

// "15m" のようなGoの書式か、単位なしの数値を受け付ける。
// 数値の単位は _MS で終わるキーならミリ秒、それ以外は秒。
func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if len(key) > 3 && key[len(key)-3:] == "_MS" {
			return time.Duration(n) * time.Millisecond, nil
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
