// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomclerk/roomclerk/internal/config"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		AuthMode:       "jwt",
		JWTSecret:      "test-secret-key-with-32-characters!",
		SessionTimeout: time.Hour,
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	manager, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	subject := &AuthSubject{
		ID:        "user-42",
		Username:  "ada",
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		AvatarURL: "https://example.com/ada.png",
	}

	token, expiresAt, err := manager.GenerateToken(subject)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)

	resolved := claims.ToAuthSubject()
	assert.Equal(t, "user-42", resolved.ID)
	assert.Equal(t, "ada", resolved.Username)
	assert.Equal(t, "Ada Lovelace", resolved.Name)
	assert.Equal(t, "ada@example.com", resolved.Email)
	assert.Equal(t, string(AuthModeJWT), resolved.Provider)
	assert.False(t, resolved.IsExpired())
}

func TestJWTManager_EmptySecret(t *testing.T) {
	_, err := NewJWTManager(&config.SecurityConfig{SessionTimeout: time.Hour})
	assert.Error(t, err)
}

func TestJWTManager_RejectsTamperedToken(t *testing.T) {
	manager, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	token, _, err := manager.GenerateToken(&AuthSubject{ID: "u", Username: "u"})
	require.NoError(t, err)

	_, err = manager.ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	manager1, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	other := testSecurityConfig()
	other.JWTSecret = "another-secret-key-with-32-chars!!!"
	manager2, err := NewJWTManager(other)
	require.NoError(t, err)

	token, _, err := manager1.GenerateToken(&AuthSubject{ID: "u", Username: "u"})
	require.NoError(t, err)

	_, err = manager2.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.SessionTimeout = -time.Minute
	manager, err := NewJWTManager(cfg)
	require.NoError(t, err)

	token, _, err := manager.GenerateToken(&AuthSubject{ID: "u", Username: "u"})
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestClaims_SubjectFallsBackToUsername(t *testing.T) {
	claims := &Claims{Username: "ada"}
	subject := claims.ToAuthSubject()
	assert.Equal(t, "ada", subject.ID)
}
