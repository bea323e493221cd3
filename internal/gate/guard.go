package gate

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finportal/internal/identity"
)

const CtxIdentity = "identity"

// CurrentIdentity returns the identity the gate attached to the request.
func CurrentIdentity(c echo.Context) (identity.Identity, bool) {
	return identity.FromContext(c.Request().Context())
}

func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentIdentity(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

func RequireRole(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !id.HasAnyRole(required...) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}
