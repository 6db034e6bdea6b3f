package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog/internal/config"
	"blog/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryApp(t *testing.T) *App {
	t.Helper()
	blogApp, err := NewApp(&config.Config{
		Port:          ":0",
		Env:           "test",
		StoreDriver:   "memory",
		SessionSecret: "memory-store-session-secret-0123456789",
		SessionTTL:    time.Hour,
		AdminUsername: "admin",
		AdminPassword: "admin-password",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = blogApp.Close() })
	return blogApp
}

func TestHealthAndMetrics(t *testing.T) {
	blogApp := newMemoryApp(t)

	resp, err := blogApp.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `"status":"healthy"`)
	assert.Contains(t, string(raw), `"cache":false`)

	resp, err = blogApp.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMemoryAppAdminLogin(t *testing.T) {
	blogApp := newMemoryApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"admin","password":"admin-password"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := blogApp.Fiber.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/posts", nil)
	req.AddCookie(session)
	resp, err = blogApp.Fiber.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
