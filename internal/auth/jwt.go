// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roomclerk/roomclerk/internal/config"
)

// Claims represents JWT claims issued at login.
type Claims struct {
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation.
//
// Tokens are signed with HMAC-SHA256 (HS256) and are stateless: they cannot
// be revoked before expiry, so logout is cookie deletion only. The secret is
// stored as []byte and must be at least 32 characters (enforced by config
// validation).
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a new JWT token manager with the configured secret
// and session timeout.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}

	return &JWTManager{
		secret:  []byte(cfg.JWTSecret),
		timeout: cfg.SessionTimeout,
	}, nil
}

// GenerateToken creates a signed token for an authenticated subject. The
// subject ID becomes the registered 'sub' claim; profile fields ride along so
// token validation can rebuild the subject without a store lookup.
func (m *JWTManager) GenerateToken(subject *AuthSubject) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.timeout)

	claims := &Claims{
		Username:  subject.Username,
		Name:      subject.Name,
		Email:     subject.Email,
		AvatarURL: subject.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, expiresAt, nil
}

// ValidateToken validates a token string and returns its claims.
//
// The signing algorithm is pinned to HMAC to prevent algorithm confusion
// attacks; expiry and not-before use server time.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// ToAuthSubject rebuilds the authenticated subject from validated claims.
func (c *Claims) ToAuthSubject() *AuthSubject {
	subject := &AuthSubject{
		ID:        c.Subject,
		Username:  c.Username,
		Name:      c.Name,
		Email:     c.Email,
		AvatarURL: c.AvatarURL,
		Provider:  string(AuthModeJWT),
	}
	if subject.ID == "" {
		subject.ID = c.Username
	}
	if c.ExpiresAt != nil {
		subject.ExpiresAt = c.ExpiresAt.Unix()
	}
	return subject
}
