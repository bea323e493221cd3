package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finportal/internal/gate"
	"github.com/Skotchmaster/finportal/internal/models"
	"github.com/Skotchmaster/finportal/internal/ratelimit"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	AccountHandler *AccountHTTP
	Gate           *gate.Gate
	LoginLimiter   *ratelimit.Limiter
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = NewRequestValidator()
	}
	e.Use(d.Gate.Middleware())

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready").SetInternal(err)
		}
		return c.NoContent(http.StatusOK)
	})

	var throttle []echo.MiddlewareFunc
	if d.LoginLimiter != nil {
		throttle = append(throttle, d.LoginLimiter.Middleware)
	}

	auth := e.Group("/auth")

	auth.POST("/register", d.AuthHandler.Register, throttle...)
	auth.POST("/login", d.AuthHandler.Login, throttle...)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.LogOut)
	auth.POST("/change-password", d.AuthHandler.ChangePassword, throttle...)
	auth.GET("/validate", d.AuthHandler.Validate)

	api := e.Group("/api", gate.RequireAuthenticated())

	api.GET("/me", d.AccountHandler.Me)
	api.GET("/staff/ping", d.AccountHandler.Ping, gate.RequireRole(models.RoleEmployee))

	admin := api.Group("/admin", gate.RequireRole(models.RoleAdmin))

	admin.GET("/ping", d.AccountHandler.Ping)
	admin.PATCH("/accounts/status", d.AccountHandler.SetStatus)
}
