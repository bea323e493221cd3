package loggingmw

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/finportal/internal/identity"
	"github.com/Skotchmaster/finportal/internal/logging"
)

func TestRequestLogger_InjectsLoggerAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "debug", "json")))
	e.GET("/api/me", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside handler")
		ctx := identity.IntoContext(c.Request().Context(), identity.Identity{Email: "john@x.com"})
		c.SetRequest(c.Request().WithContext(ctx))
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	out := buf.String()
	assert.Contains(t, out, "inside handler")
	assert.Contains(t, out, "rid-1")
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "john@x.com")
}

func TestRequestLogger_GeneratesRequestIDAndHandlesErrors(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "info", "json")))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, buf.String(), "WARN")
}
