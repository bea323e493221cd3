package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finportal/internal/gate"
	"github.com/Skotchmaster/finportal/internal/logging"
	"github.com/Skotchmaster/finportal/internal/repo"
	"github.com/Skotchmaster/finportal/internal/service"
)

type AccountAdmin interface {
	SetStatus(ctx context.Context, email string, enabled, active bool) error
}

type AccountHTTP struct {
	Accounts AccountAdmin
}

func (h *AccountHTTP) Me(c echo.Context) error {
	id, ok := gate.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, id)
}

func (h *AccountHTTP) Ping(c echo.Context) error {
	id, _ := gate.CurrentIdentity(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "pong", "role": id.Role})
}

func (h *AccountHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_account_status")

	var req accountStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("account_status_error", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	email := service.NormalizeEmail(req.Email)
	if err := h.Accounts.SetStatus(ctx, email, *req.Enabled, *req.Active); err != nil {
		if errors.Is(err, repo.ErrAccountNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "account not found")
		}
		l.Error("account_status_error", "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}

	l.Info("account_status_updated", "email", email, "enabled", *req.Enabled, "active", *req.Active)
	return c.JSON(http.StatusOK, echo.Map{
		"email":   email,
		"enabled": *req.Enabled,
		"active":  *req.Active,
	})
}
