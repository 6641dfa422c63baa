package handler

import (
	"errors"
	"net/http"
	"time"

	"ecauth/internal/usecase"
	auth "ecauth/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// 成功時の共通レスポンス
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	StatusCode int    `json:"statusCode"`
}

// 失敗時の共通レスポンス
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func success(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, SuccessResponse{Success: true, Data: data, Message: message})
}

// usecaseのエラー → ステータスとコード
func classify(err error) (int, string, string) {
	if he, ok := usecase.AsHTTPError(err); ok {
		return he.Status, codeForStatus(he.Status), he.Message
	}

	var ve *auth.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "VALIDATION_ERROR", ve.Error()
	}

	switch {
	case errors.Is(err, auth.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()

	case errors.Is(err, auth.ErrInvalidCode),
		errors.Is(err, auth.ErrTwoFactorNotEnabled),
		errors.Is(err, auth.ErrTwoFactorNotPending):
		return http.StatusBadRequest, "BAD_REQUEST", err.Error()

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrPasswordNotSet),
		errors.Is(err, auth.ErrEmailNotVerified),
		errors.Is(err, auth.ErrAccountBlocked),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrInvalid2FACode):
		return http.StatusUnauthorized, "UNAUTHORIZED", err.Error()

	case errors.Is(err, auth.ErrInsufficientPermissions):
		return http.StatusForbidden, "FORBIDDEN", err.Error()

	case errors.Is(err, auth.ErrAccountNotFound),
		errors.Is(err, auth.ErrDeviceNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()

	case errors.Is(err, auth.ErrEmailAlreadyExists),
		errors.Is(err, auth.ErrTwoFactorAlreadyEnabled):
		return http.StatusConflict, "CONFLICT", err.Error()

	case errors.Is(err, auth.ErrTooManyRequests):
		return http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", err.Error()
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		msg := http.StatusText(ee.Code)
		if s, ok := ee.Message.(string); ok && s != "" {
			msg = s
		}
		return ee.Code, codeForStatus(ee.Code), msg
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMIT_EXCEEDED"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "BAD_REQUEST"
}

// echoのHTTPErrorHandler。ハンドラもミドルウェアもエラーを返すだけにして、ここで共通の形にする
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		log.Errorj(log.JSON{
			"msg":    "request failed",
			"method": c.Request().Method,
			"path":   c.Request().URL.Path,
			"error":  err.Error(),
		})
	}

	body := ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:       code,
			Message:    msg,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Path:       c.Request().URL.Path,
			StatusCode: status,
		},
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		log.Errorj(log.JSON{"msg": "write error response", "error": werr.Error()})
	}
}
