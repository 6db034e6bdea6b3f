//go:build integration
// +build integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"blog/internal/config"
	"blog/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var app *App

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("blog"),
		postgres.WithUsername("blog"),
		postgres.WithPassword("blog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Failed to get connection string: %v", err)
	}

	cfg := &config.Config{
		Port:          ":8081",
		Env:           "test",
		StoreDriver:   "postgres",
		DatabaseDSN:   dsn,
		SessionSecret: "integration-secret-at-least-32-characters",
		SessionTTL:    time.Hour,
		AdminUsername: "admin",
		AdminPassword: "integration-password",
	}
	app, err = NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	code := m.Run()

	log.Println("Shutting down test environment...")
	if err := app.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if err := app.Close(); err != nil {
		log.Printf("Error releasing resources: %v", err)
	}
	if err := pgContainer.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate container: %v", err)
	}

	os.Exit(code)
}

func send(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Fiber.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestPostLifecycleAgainstPostgres(t *testing.T) {
	resp := send(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "integration-password",
	}, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)

	content := strings.Repeat("Postgres keeps the slug index honest. ", 4)
	resp = send(t, http.MethodPost, "/api/v1/admin/posts", map[string]string{
		"title":   "Running on Postgres",
		"content": content,
	}, session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, "running-on-postgres", created["slug"])

	resp = send(t, http.MethodPost, "/api/v1/admin/posts", map[string]string{
		"title":   "Running on Postgres",
		"content": content,
	}, session)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = send(t, http.MethodGet, "/api/v1/posts/running-on-postgres", nil, nil)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"username":"admin"`)
	assert.NotContains(t, string(raw), "integration-password")

	resp = send(t, http.MethodDelete, "/api/v1/admin/posts/"+created["id"].(string), nil, session)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, http.MethodGet, "/api/v1/posts/running-on-postgres", nil, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
