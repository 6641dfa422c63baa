package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, 12, cfg.BcryptRounds)
	assert.Equal(t, 300*time.Second, cfg.OTPExpiresIn)
	assert.Equal(t, 60*time.Second, cfg.OTPResendThrottle)
	assert.Equal(t, 6, cfg.TOTPDigits)
	assert.Equal(t, 30, cfg.TOTPPeriod)
	assert.Equal(t, 1, cfg.TOTPWindow)
	assert.False(t, cfg.SMTPEnabled())
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_DurationFormats(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_EXPIRES_IN", "30m")
	t.Setenv("OTP_EXPIRES_IN", "120")
	t.Setenv("TIMEOUT_MS", "2500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, 120*time.Second, cfg.OTPExpiresIn)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing access secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("JWT_REFRESH_SECRET", "x")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("same secrets", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "same")
		t.Setenv("JWT_REFRESH_SECRET", "same")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad number", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BCRYPT_ROUNDS", "twelve")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDSN(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://u:p@h/db"}
	assert.Equal(t, "postgres://u:p@h/db", cfg.DSN())

	cfg = Config{PostgresHost: "db", PostgresPort: 5432, PostgresUser: "u", PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}
