package totp

import (
	"encoding/base32"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *Engine {
	return NewEngine(Config{Issuer: "E-Commerce", Digits: 6, Period: 30, Window: 1})
}

// RFC 6238 付録Bのベクタ（SHA1, 8桁）
func TestCode_RFC6238Vectors(t *testing.T) {
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte("12345678901234567890"))
	e := NewEngine(Config{Issuer: "x", Digits: 8, Period: 30})

	cases := []struct {
		unix int64
		want string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
	}
	for _, tc := range cases {
		got, err := e.Code(secret, time.Unix(tc.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "t=%d", tc.unix)
	}
}

func TestGenerateSecret(t *testing.T) {
	e := newEngine()
	s, err := e.GenerateSecret()
	require.NoError(t, err)

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, 20)
	assert.NotContains(t, s, "=")

	s2, err := e.GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, s, s2)
}

func TestVerify_DriftWindow(t *testing.T) {
	e := newEngine()
	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	now := time.Unix(1_700_000_010, 0)

	prev, _ := e.Code(secret, now.Add(-30*time.Second))
	cur, _ := e.Code(secret, now)
	next, _ := e.Code(secret, now.Add(30*time.Second))
	far, _ := e.Code(secret, now.Add(-60*time.Second))
	farNext, _ := e.Code(secret, now.Add(60*time.Second))

	assert.True(t, e.Verify(secret, cur, now))
	assert.True(t, e.Verify(secret, prev, now))
	assert.True(t, e.Verify(secret, next, now))

	if far != cur && far != prev && far != next {
		assert.False(t, e.Verify(secret, far, now))
	}
	if farNext != cur && farNext != prev && farNext != next {
		assert.False(t, e.Verify(secret, farNext, now))
	}
}

func TestVerify_RejectsMalformed(t *testing.T) {
	e := newEngine()
	secret, _ := e.GenerateSecret()
	now := time.Now()

	assert.False(t, e.Verify(secret, "", now))
	assert.False(t, e.Verify(secret, "12345", now))
	assert.False(t, e.Verify(secret, "abcdef", now))
	assert.False(t, e.Verify("not base32!!", "123456", now))
}

func TestEnrollmentURI(t *testing.T) {
	e := newEngine()
	uri := e.EnrollmentURI("a@x.com", "JBSWY3DPEHPK3PXP")

	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	u, err := url.Parse(uri)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "JBSWY3DPEHPK3PXP", q.Get("secret"))
	assert.Equal(t, "E-Commerce", q.Get("issuer"))
	assert.Equal(t, "SHA1", q.Get("algorithm"))
	assert.Equal(t, "6", q.Get("digits"))
	assert.Equal(t, "30", q.Get("period"))
	assert.Contains(t, u.Path, "E-Commerce:a@x.com")
}

func TestQRDataURL(t *testing.T) {
	e := newEngine()
	data, err := e.QRDataURL(e.EnrollmentURI("a@x.com", "JBSWY3DPEHPK3PXP"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, "data:image/png;base64,"))
}
