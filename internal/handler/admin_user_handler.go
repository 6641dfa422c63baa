package handler

import (
	"net/http"
	"strconv"

	"ecauth/internal/middleware"
	"ecauth/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc *usecase.AdminUserUsecase
}

func NewAdminUserHandler(uc *usecase.AdminUserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func parseAccountID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// GET /admin/users/:id/sessions
func (h *AdminUserHandler) ListSessions(c echo.Context) error {
	id, err := parseAccountID(c)
	if err != nil {
		return err
	}
	sessions, err := h.uc.ListSessions(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, sessions, "")
}

// POST /admin/users/:id/force-logout
func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	id, err := parseAccountID(c)
	if err != nil {
		return err
	}
	res, err := h.uc.ForceLogout(c.Request().Context(), middleware.AccountID(c), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, res, "All sessions revoked")
}

// PATCH /admin/users/:id/status
func (h *AdminUserHandler) UpdateStatus(c echo.Context) error {
	id, err := parseAccountID(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	res, err := h.uc.UpdateStatus(c.Request().Context(), middleware.AccountID(c), id, usecase.UpdateAccountStatusInput{Status: req.Status})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, res, "Account status updated")
}

// GET /admin/audit-logs
func (h *AdminUserHandler) ListAuditLogs(c echo.Context) error {
	in := usecase.AuditLogListInput{Action: c.QueryParam("action")}

	ints := []struct {
		key string
		dst *int64
	}{
		{"actor_id", &in.ActorAccountID},
		{"resource_id", &in.ResourceID},
	}
	for _, q := range ints {
		v := c.QueryParam(q.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return usecase.NewHTTPError(http.StatusBadRequest, "invalid "+q.key)
		}
		*q.dst = n
	}

	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return usecase.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		in.Page = p
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return usecase.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		in.Limit = l
	}

	logs, err := h.uc.ListAuditLogs(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, logs, "")
}
