package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ecauth/internal/infra/oauth"
	"ecauth/internal/middleware"
	auth "ecauth/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// Googleの認可コードフロー。未設定ならnil
type GoogleOAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.GoogleProfile, error)
}

type AuthHandler struct {
	uc           *auth.AuthUsecase
	google       GoogleOAuth
	feURL        string // OAuth完了後のリダイレクト先
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(uc *auth.AuthUsecase, google GoogleOAuth, feURL string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{uc: uc, google: google, feURL: feURL, cookieSecure: cookieSecure}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

type emailCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type login2FARequest struct {
	TempToken string `json:"tempToken"`
	Code      string `json:"code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type disable2FARequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return auth.NewValidationError("body", "invalid request body")
	}
	return nil
}

func deviceInfo(c echo.Context) auth.DeviceInfo {
	return auth.DeviceInfo{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

// POST /auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Register(c.Request().Context(), auth.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, out.Account, out.Message)
}

// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req emailCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.uc.VerifyEmail(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// POST /auth/resend-verification
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.uc.ResendVerification(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.uc.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.uc.ResetPassword(c.Request().Context(), auth.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Login(c.Request().Context(), req.Email, req.Password, deviceInfo(c))
	if err != nil {
		return err
	}
	if out.Requires2FA {
		return success(c, http.StatusOK, out, "Two-factor authentication required")
	}
	return success(c, http.StatusOK, out, "Login successful")
}

// POST /auth/2fa/login
func (h *AuthHandler) Login2FA(c echo.Context) error {
	var req login2FARequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.uc.LoginWith2FA(c.Request().Context(), req.TempToken, req.Code, deviceInfo(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, out, "Login successful")
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.uc.RefreshToken(c.Request().Context(), req.RefreshToken, c.RealIP())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, out, "Token refreshed")
}

// DELETE /auth/sessions/:refreshToken
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := url.PathUnescape(c.Param("refreshToken"))
	if err != nil {
		return auth.NewValidationError("refreshToken", "is malformed")
	}
	out, err := h.uc.Logout(c.Request().Context(), middleware.AccountID(c), token)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// DELETE /auth/sessions
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	out, err := h.uc.LogoutAllDevices(c.Request().Context(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// GET /auth/sessions
func (h *AuthHandler) ListSessions(c echo.Context) error {
	sessions, err := h.uc.ListSessions(c.Request().Context(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, sessions, "")
}

// GET /auth/devices
func (h *AuthHandler) ListDevices(c echo.Context) error {
	devices, err := h.uc.ListDevices(c.Request().Context(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, devices, "")
}

// DELETE /auth/devices/:deviceId
func (h *AuthHandler) RevokeDevice(c echo.Context) error {
	deviceID, err := strconv.ParseInt(c.Param("deviceId"), 10, 64)
	if err != nil || deviceID <= 0 {
		return auth.NewValidationError("deviceId", "must be a positive integer")
	}
	out, err := h.uc.RevokeDevice(c.Request().Context(), middleware.AccountID(c), deviceID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// GET /auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	me, err := h.uc.Me(c.Request().Context(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, me, "")
}

// POST /auth/2fa/setup
func (h *AuthHandler) Setup2FA(c echo.Context) error {
	out, err := h.uc.Setup2FA(c.Request().Context(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, out, "Scan the QR code with your authenticator app")
}

// POST /auth/2fa/verify
func (h *AuthHandler) Verify2FA(c echo.Context) error {
	var req codeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.uc.Verify2FA(c.Request().Context(), middleware.AccountID(c), req.Code)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// DELETE /auth/2fa/disable
func (h *AuthHandler) Disable2FA(c echo.Context) error {
	var req disable2FARequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.uc.Disable2FA(c.Request().Context(), middleware.AccountID(c), req.Password, req.Code)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, nil, out.Message)
}

// GET /auth/2fa/status
func (h *AuthHandler) TwoFactorStatus(c echo.Context) error {
	out, err := h.uc.TwoFactorStatus(c.Request().Context(), middleware.AccountID(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, out, "")
}

// GET /auth/google
// stateをcookieに入れてGoogleへリダイレクトする
func (h *AuthHandler) GoogleRedirect(c echo.Context) error {
	if h.google == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Google login is not configured")
	}

	state, err := generateSecureToken(32)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(oauthStateTTL),
	})
	return c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GET /auth/google/callback
// 結果はフロントへクエリで渡す
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if h.google == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Google login is not configured")
	}

	cookie, err := c.Cookie(oauthStateCookie)
	h.clearStateCookie(c)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return h.redirectGoogleError(c, "invalid oauth state")
	}
	if e := c.QueryParam("error"); e != "" {
		return h.redirectGoogleError(c, e)
	}

	profile, err := h.google.Exchange(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		log.Warnj(log.JSON{"msg": "google exchange failed", "error": err.Error()})
		return h.redirectGoogleError(c, "google authentication failed")
	}

	out, err := h.uc.GoogleLogin(c.Request().Context(), auth.GoogleProfile{
		Subject:       profile.Subject,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		Name:          profile.Name,
		Picture:       profile.Picture,
	}, deviceInfo(c))
	if err != nil {
		_, _, msg := classify(err)
		return h.redirectGoogleError(c, msg)
	}

	q := url.Values{}
	q.Set("token", out.Tokens.AccessToken)
	q.Set("refreshToken", out.Tokens.RefreshToken)
	return c.Redirect(http.StatusFound, h.feURL+"/auth/google/success?"+q.Encode())
}

func (h *AuthHandler) redirectGoogleError(c echo.Context, message string) error {
	q := url.Values{}
	q.Set("message", message)
	return c.Redirect(http.StatusFound, h.feURL+"/auth/google/error?"+q.Encode())
}

func (h *AuthHandler) clearStateCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/auth/google",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ランダム文字列を作る。
func generateSecureToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 32
	}

	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
