// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/database"
	"github.com/roomclerk/roomclerk/internal/models"
	ws "github.com/roomclerk/roomclerk/internal/websocket"
)

func jwtTestConfig() *config.Config {
	cfg := testConfig()
	cfg.Security.AuthMode = "jwt"
	cfg.Security.JWTSecret = "test-secret-key-with-32-characters!"
	cfg.Security.SessionTimeout = 3600000000000 // 1h
	cfg.Security.AdminUsername = "admin"
	cfg.Security.AdminPassword = "correct horse battery staple"
	return cfg
}

func sessionTestConfig() *config.Config {
	cfg := jwtTestConfig()
	cfg.Security.AuthMode = "session"
	cfg.Security.SessionStore = "memory"
	return cfg
}

func newAuthHandler(t *testing.T, cfg *config.Config) *Handler {
	t.Helper()

	db, err := database.New(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	var jwtManager *auth.JWTManager
	var sessionStore auth.SessionStore
	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		require.NoError(t, err)
	case "session":
		sessionStore = auth.NewMemorySessionStore()
	}

	authMw, err := auth.NewMiddleware(&cfg.Security, jwtManager, sessionStore)
	require.NoError(t, err)

	return NewHandler(db, cfg, ws.NewHub(), authMw, auth.NewCredentialVerifier(&cfg.Security), jwtManager)
}

func doLogin(t *testing.T, handler *Handler, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(models.LoginRequest{Username: username, Password: password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)
	return rec
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestLogin_JWTModeSetsTokenCookie(t *testing.T) {
	handler := newAuthHandler(t, jwtTestConfig())

	rec := doLogin(t, handler, "admin", "correct horse battery staple")
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(t, rec, auth.TokenCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	var resp struct {
		Status string               `json:"status"`
		Data   models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "admin", resp.Data.Username)
	assert.False(t, resp.Data.ExpiresAt.IsZero())

	// The issued token must satisfy the middleware.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recent-activities", nil)
	req.AddCookie(cookie)
	subject, err := handler.authMw.Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject.Username)
}

func TestLogin_SessionModeCreatesSession(t *testing.T) {
	handler := newAuthHandler(t, sessionTestConfig())

	rec := doLogin(t, handler, "admin", "correct horse battery staple")
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(t, rec, auth.SessionCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recent-activities", nil)
	req.AddCookie(cookie)
	subject, err := handler.authMw.Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject.Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	handler := newAuthHandler(t, jwtTestConfig())

	rec := doLogin(t, handler, "admin", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
	assert.Nil(t, findCookie(t, rec, auth.TokenCookieName))
}

func TestLogin_AuthDisabled(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig())

	rec := doLogin(t, handler, "admin", "anything")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_DISABLED")
}

func TestLogin_MissingFields(t *testing.T) {
	handler := newAuthHandler(t, jwtTestConfig())

	rec := doLogin(t, handler, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestLogout_SessionModeDeletesSession(t *testing.T) {
	handler := newAuthHandler(t, sessionTestConfig())

	loginRec := doLogin(t, handler, "admin", "correct horse battery staple")
	require.Equal(t, http.StatusOK, loginRec.Code)
	cookie := findCookie(t, loginRec, auth.SessionCookieName)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := findCookie(t, rec, auth.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// The old session ID must no longer resolve.
	retry := httptest.NewRequest(http.MethodGet, "/api/v1/recent-activities", nil)
	retry.AddCookie(cookie)
	_, err := handler.authMw.Resolve(retry)
	assert.Error(t, err)
}

func TestLogout_JWTModeClearsCookie(t *testing.T) {
	handler := newAuthHandler(t, jwtTestConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cleared := findCookie(t, rec, auth.TokenCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}
