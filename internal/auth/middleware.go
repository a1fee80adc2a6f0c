// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/models"
)

// Cookie names used by the authentication middleware.
const (
	// TokenCookieName holds the JWT in jwt mode.
	TokenCookieName = "token"

	// SessionCookieName holds the opaque session ID in session mode.
	SessionCookieName = "roomclerk_session"
)

// Middleware resolves the authenticated subject for incoming requests.
//
// In jwt mode the token is read from the Authorization header (Bearer) or the
// token cookie. In session mode the opaque session cookie is looked up in the
// session store and its expiry extended on each request. In none mode every
// request is attributed to a synthetic local subject.
type Middleware struct {
	mode         AuthMode
	jwtManager   *JWTManager
	sessionStore SessionStore
	timeout      time.Duration
}

// NewMiddleware creates authentication middleware for the configured mode.
// jwtManager is required in jwt mode, sessionStore in session mode.
func NewMiddleware(cfg *config.SecurityConfig, jwtManager *JWTManager, sessionStore SessionStore) (*Middleware, error) {
	mode, err := ParseAuthMode(cfg.AuthMode)
	if err != nil {
		return nil, err
	}
	if mode == AuthModeJWT && jwtManager == nil {
		return nil, fmt.Errorf("jwt auth mode requires a JWT manager")
	}
	if mode == AuthModeSession && sessionStore == nil {
		return nil, fmt.Errorf("session auth mode requires a session store")
	}

	return &Middleware{
		mode:         mode,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		timeout:      cfg.SessionTimeout,
	}, nil
}

// Mode returns the configured authentication mode.
func (m *Middleware) Mode() AuthMode {
	return m.mode
}

// SessionStore returns the session store, or nil outside session mode.
func (m *Middleware) SessionStore() SessionStore {
	return m.sessionStore
}

// Authenticate enforces authentication and stores the resolved subject in the
// request context. Unauthenticated requests get a 401 envelope and never
// reach the next handler.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.Resolve(r)
		if err != nil {
			respondUnauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	})
}

// Resolve extracts and validates credentials from a request without writing a
// response. The websocket handshake uses this directly so the upgrade can
// fail before any connection state exists.
func (m *Middleware) Resolve(r *http.Request) (*AuthSubject, error) {
	switch m.mode {
	case AuthModeNone:
		return &AuthSubject{
			ID:       "local",
			Username: "local",
			Provider: string(AuthModeNone),
		}, nil
	case AuthModeSession:
		return m.resolveSession(r)
	default:
		return m.resolveJWT(r)
	}
}

func (m *Middleware) resolveJWT(r *http.Request) (*AuthSubject, error) {
	token, err := m.extractJWTToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		logging.Debug().Err(err).Msg("token validation failed")
		return nil, ErrInvalidCredentials
	}

	return claims.ToAuthSubject(), nil
}

// extractJWTToken extracts the JWT from the Authorization header or cookie.
func (m *Middleware) extractJWTToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie(TokenCookieName)
		if err != nil {
			return "", ErrNoCredentials
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidCredentials
	}
	return parts[1], nil
}

func (m *Middleware) resolveSession(r *http.Request) (*AuthSubject, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, ErrNoCredentials
	}

	session, err := m.sessionStore.Get(r.Context(), cookie.Value)
	if errors.Is(err, ErrSessionExpired) {
		return nil, ErrExpiredCredentials
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Sliding expiry: each authenticated request extends the session.
	if err := m.sessionStore.Touch(r.Context(), session.ID, time.Now().Add(m.timeout)); err != nil {
		logging.Warn().Err(err).Msg("failed to touch session")
	}

	return session.ToAuthSubject(), nil
}

// respondUnauthorized writes the standard 401 envelope.
func respondUnauthorized(w http.ResponseWriter, err error) {
	message := "Authentication required"
	if errors.Is(err, ErrExpiredCredentials) {
		message = "Authentication expired"
	} else if errors.Is(err, ErrInvalidCredentials) {
		message = "Invalid credentials"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    "AUTH_REQUIRED",
			Message: message,
		},
	}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		logging.Error().Err(encodeErr).Msg("failed to encode auth error response")
	}
}
