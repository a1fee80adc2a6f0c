// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/models"
)

// Login authenticates the configured admin user and issues either a JWT
// cookie or an opaque session cookie depending on auth_mode.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}

	validationReq := loginRequestValidation{
		Username: req.Username,
		Password: req.Password,
	}
	if apiErr := validateRequest(&validationReq); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if h.authMw == nil || h.authMw.Mode() == auth.AuthModeNone {
		respondError(w, http.StatusForbidden, "AUTH_DISABLED", "Authentication is disabled", ErrAuthDisabled)
		return
	}

	subject, err := h.verifier.Verify(req.Username, req.Password)
	if err != nil {
		logging.Warn().Str("username", sanitizeLogValue(req.Username)).Msg("Login rejected: invalid credentials")
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		return
	}

	h.upsertOwner(r, subject)

	switch h.authMw.Mode() {
	case auth.AuthModeJWT:
		h.loginJWT(w, r, subject)
	case auth.AuthModeSession:
		h.loginSession(w, r, subject)
	default:
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Unsupported authentication mode", nil)
	}
}

// loginJWT issues a signed token in an HTTP-only cookie.
func (h *Handler) loginJWT(w http.ResponseWriter, r *http.Request, subject *auth.AuthSubject) {
	if h.jwtManager == nil {
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "JWT manager not initialized", nil)
		return
	}

	token, expiresAt, err := h.jwtManager.GenerateToken(subject)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Failed to generate authentication token", err)
		return
	}

	setAuthCookie(w, r, auth.TokenCookieName, token, expiresAt)
	h.sendLoginResponse(w, subject, expiresAt)
}

// loginSession creates a server-side session and sets the opaque cookie.
func (h *Handler) loginSession(w http.ResponseWriter, r *http.Request, subject *auth.AuthSubject) {
	store := h.authMw.SessionStore()
	if store == nil {
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Session store not initialized", nil)
		return
	}

	session := auth.NewSession(subject, h.config.Security.SessionTimeout)
	if err := store.Create(r.Context(), session); err != nil {
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Failed to create session", err)
		return
	}

	setAuthCookie(w, r, auth.SessionCookieName, session.ID, session.ExpiresAt)
	h.sendLoginResponse(w, subject, session.ExpiresAt)
}

// Logout invalidates the caller's credentials. In session mode the
// server-side session is deleted; in both modes the cookie is cleared.
// Logout is idempotent and succeeds even without a valid cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if h.authMw != nil && h.authMw.Mode() == auth.AuthModeSession {
		if store := h.authMw.SessionStore(); store != nil {
			if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
				if err := store.Delete(r.Context(), cookie.Value); err != nil {
					logging.Warn().Err(err).Msg("Failed to delete session on logout")
				}
			}
		}
		clearAuthCookie(w, r, auth.SessionCookieName)
	} else {
		clearAuthCookie(w, r, auth.TokenCookieName)
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Logged out",
	}, 0)
}

// sendLoginResponse sends the successful login payload.
func (h *Handler) sendLoginResponse(w http.ResponseWriter, subject *auth.AuthSubject, expiresAt time.Time) {
	respondSuccess(w, http.StatusOK, models.LoginResponse{
		Username:  subject.Username,
		UserID:    subject.ID,
		ExpiresAt: expiresAt,
	}, 0)
}

// setAuthCookie sets an HTTP-only auth cookie scoped to the whole site.
func setAuthCookie(w http.ResponseWriter, r *http.Request, name, value string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookie expires an auth cookie immediately.
func clearAuthCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}
