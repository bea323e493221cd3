package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finportal/internal/passwordpolicy"
	"github.com/Skotchmaster/finportal/internal/service"
)

type violation struct {
	Rule    passwordpolicy.Rule `json:"rule"`
	Message string              `json:"message"`
}

// httpError maps service failures onto the status codes clients see.
func httpError(err error) *echo.HTTPError {
	var pv *passwordpolicy.ViolationError
	switch {
	case errors.As(err, &pv):
		out := make([]violation, 0, len(pv.Violations))
		for _, r := range pv.Violations {
			out = append(out, violation{Rule: r, Message: r.Message()})
		}
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"message":    "password does not meet the policy",
			"violations": out,
		})
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	case errors.Is(err, service.ErrDuplicateAccount):
		return echo.NewHTTPError(http.StatusBadRequest, "account already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrTokenRevoked):
		return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
	case errors.Is(err, service.ErrTokenInvalid):
		return echo.NewHTTPError(http.StatusUnauthorized, "token invalid")
	case errors.Is(err, service.ErrAccountNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
