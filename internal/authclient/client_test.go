package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubServer(t *testing.T) *httptest.Server {
	t.Helper()

	used := map[string]bool{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/validate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer good" {
			_, _ = w.Write([]byte(`{"valid":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"valid":true,"email":"john@x.com","role":"CLIENT"}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token != "good" || used[req.Token] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		used[req.Token] = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"next"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Validate(t *testing.T) {
	c := NewClient(newStubServer(t).URL + "/")

	res, err := c.Validate(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "john@x.com", res.Email)
	assert.Equal(t, "CLIENT", res.Role)

	res, err = c.Validate(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestClient_Refresh(t *testing.T) {
	c := NewClient(newStubServer(t).URL)

	next, err := c.Refresh(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "next", next)

	_, err = c.Refresh(context.Background(), "good")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).Validate(context.Background(), "good")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}
