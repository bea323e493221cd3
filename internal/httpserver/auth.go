package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finportal/internal/gate"
	"github.com/Skotchmaster/finportal/internal/logging"
	"github.com/Skotchmaster/finportal/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, registerResponse{
		Token: res.Token,
		Email: res.Account.Email,
		Role:  res.Account.Role,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.Svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token: res.Token,
		ID:    res.ID,
		Email: res.Email,
		Role:  res.Role,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	token := submittedToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	fresh, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: fresh})
}

// LogOut always succeeds; a missing or unusable token has nothing to revoke.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	if token := submittedToken(c); token != "" {
		h.Svc.Logout(c.Request().Context(), token)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_change_password")

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// an authenticated caller may only change their own password
	if id, ok := gate.CurrentIdentity(c); ok && id.Email != service.NormalizeEmail(req.Email) {
		l.Warn("change_password_error", "status", http.StatusForbidden, "reason", "email does not match caller")
		return echo.NewHTTPError(http.StatusForbidden, "cannot change another account's password")
	}

	if err := h.Svc.ChangePassword(ctx, req.Email, req.CurrentPassword, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

// Validate reports whether a token is usable. It answers 200 in every case.
func (h *AuthHTTP) Validate(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Validate(c.Request().Context(), requestToken(c)))
}

// requestToken looks for a token in the Authorization header, the token
// query parameter, then a JSON body.
func requestToken(c echo.Context) string {
	if token, ok := gate.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
		return token
	}
	if token := c.QueryParam("token"); token != "" {
		return token
	}
	return bodyToken(c)
}

// submittedToken is the token a refresh or logout acts on. The body names
// it explicitly; the Authorization header is only a fallback, since clients
// attach their session token there on every call.
func submittedToken(c echo.Context) string {
	if token := bodyToken(c); token != "" {
		return token
	}
	token, _ := gate.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	return token
}

func bodyToken(c echo.Context) string {
	var req tokenRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return ""
	}
	return req.Token
}
