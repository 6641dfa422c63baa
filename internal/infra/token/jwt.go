package token

import (
	"errors"
	"strconv"
	"time"

	"ecauth/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 署名が違う・期限切れ・種類違いなどはすべてこれ
var ErrInvalidToken = errors.New("invalid token")

// 2FA待ちトークンの有効期限
const pending2FATTL = 5 * time.Minute

type Clock interface {
	Now() time.Time
}

// JWTのpayload
type jwtClaims struct {
	Email      string           `json:"email,omitempty"`
	Role       string           `json:"role,omitempty"`
	DeviceID   *int64           `json:"device_id,omitempty"`
	Type       model.TokenClass `json:"typ"`
	Pending2FA bool             `json:"pending_2fa,omitempty"`
	jwt.RegisteredClaims
}

// access/refreshで別々のシークレットを持つHS256のissuer。
// 2FA待ちトークンはaccessのシークレットで署名するがtypで区別する。
type JWTIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	clock         Clock
}

// DI
func NewJWTIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, clock Clock) *JWTIssuer {
	return &JWTIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		clock:         clock,
	}
}

func (i *JWTIssuer) SignAccess(claims model.TokenClaims, now time.Time) (string, time.Time, error) {
	return i.sign(claims, model.TokenClassAccess, i.accessSecret, now, now.Add(i.accessTTL))
}

func (i *JWTIssuer) SignRefresh(claims model.TokenClaims, now time.Time) (string, time.Time, error) {
	return i.sign(claims, model.TokenClassRefresh, i.refreshSecret, now, now.Add(i.refreshTTL))
}

// emailとpending_2faだけを載せる
func (i *JWTIssuer) SignPending2FA(email string, now time.Time) (string, time.Time, error) {
	return i.sign(model.TokenClaims{Email: email, Pending2FA: true}, model.TokenClassPending2FA, i.accessSecret, now, now.Add(pending2FATTL))
}

func (i *JWTIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

func (i *JWTIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *JWTIssuer) sign(c model.TokenClaims, class model.TokenClass, secret []byte, now, exp time.Time) (string, time.Time, error) {
	claims := jwtClaims{
		Email:      c.Email,
		Role:       c.Role,
		DeviceID:   c.DeviceID,
		Type:       class,
		Pending2FA: c.Pending2FA,
		RegisteredClaims: jwt.RegisteredClaims{
			// 同じ秒に発行しても別トークンになるようにjtiを付ける
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if class != model.TokenClassPending2FA {
		claims.Subject = strconv.FormatInt(c.AccountID, 10)
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// 指定した種類のトークンとして検証する。
// 2FA待ちトークンをaccessとして渡しても通らない。
func (i *JWTIssuer) Verify(raw string, class model.TokenClass) (*model.TokenClaims, error) {
	secret := i.accessSecret
	if class == model.TokenClassRefresh {
		secret = i.refreshSecret
	}

	var claims jwtClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != class {
		return nil, ErrInvalidToken
	}
	if (class == model.TokenClassPending2FA) != claims.Pending2FA {
		return nil, ErrInvalidToken
	}

	out := &model.TokenClaims{
		Email:      claims.Email,
		Role:       claims.Role,
		DeviceID:   claims.DeviceID,
		Pending2FA: claims.Pending2FA,
		ExpiresAt:  claims.ExpiresAt.Time,
	}

	if class != model.TokenClassPending2FA {
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || id <= 0 {
			return nil, ErrInvalidToken
		}
		out.AccountID = id
	}
	if out.Email == "" {
		return nil, ErrInvalidToken
	}
	return out, nil
}
