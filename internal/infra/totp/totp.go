package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// 160bit
const secretBytes = 20

var ErrInvalidSecret = errors.New("invalid totp secret")

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

type Config struct {
	Issuer string
	Digits int
	Period int // 秒
	Window int // 前後何ステップまで許すか
}

// RFC 6238 (HMAC-SHA1) のTOTP
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}
	return &Engine{cfg: cfg}
}

// base32（パディングなし）のシークレットを作る
func (e *Engine) GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// 認証アプリ登録用の otpauth:// URI
func (e *Engine) EnrollmentURI(email string, secret string) string {
	label := url.PathEscape(e.cfg.Issuer + ":" + email)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", e.cfg.Issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", strconv.Itoa(e.cfg.Digits))
	v.Set("period", strconv.Itoa(e.cfg.Period))

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// 現在のステップ±Windowのどれかと一致すればOK
func (e *Engine) Verify(secret string, code string, now time.Time) bool {
	code = strings.TrimSpace(code)
	if len(code) != e.cfg.Digits || !isDigits(code) {
		return false
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}

	base := now.Unix() / int64(e.cfg.Period)
	for step := -e.cfg.Window; step <= e.cfg.Window; step++ {
		counter := base + int64(step)
		if counter < 0 {
			continue
		}
		want := hotp(key, uint64(counter), e.cfg.Digits)
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// atの時刻のコード
func (e *Engine) Code(secret string, at time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, uint64(at.Unix()/int64(e.cfg.Period)), e.cfg.Digits), nil
}

// QRコード(PNG)
func (e *Engine) QRCodePNG(uri string) ([]byte, error) {
	return qrcode.Encode(uri, qrcode.Medium, 256)
}

// フロントでそのまま<img src>に入れられる形
func (e *Engine) QRDataURL(uri string) (string, error) {
	png, err := e.QRCodePNG(uri)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	key, err := b32.DecodeString(s)
	if err != nil || len(key) == 0 {
		return nil, ErrInvalidSecret
	}
	return key, nil
}

func hotp(key []byte, counter uint64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (uint32(sum[offset])&0x7f)<<24 |
		uint32(sum[offset+1])<<16 |
		uint32(sum[offset+2])<<8 |
		uint32(sum[offset+3])

	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
