// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package auth

import (
	"context"
	"errors"
	"time"
)

// AuthMode represents the authentication strategy.
type AuthMode string

const (
	// AuthModeNone disables authentication. Intended for development only;
	// requests are attributed to a synthetic local subject.
	AuthModeNone AuthMode = "none"

	// AuthModeJWT uses stateless JWT Bearer tokens (header or cookie).
	AuthModeJWT AuthMode = "jwt"

	// AuthModeSession uses opaque server-side session cookies.
	AuthModeSession AuthMode = "session"
)

// ParseAuthMode converts a string to AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "none":
		return AuthModeNone, nil
	case "jwt", "":
		return AuthModeJWT, nil
	case "session":
		return AuthModeSession, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

// String returns the string representation of AuthMode.
func (m AuthMode) String() string {
	return string(m)
}

// Standard authentication errors
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates credentials have expired.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// AuthSubject represents an authenticated user. All activity writes and reads
// are scoped to the subject's ID, so handlers never trust an owner identifier
// supplied in a request body over this.
type AuthSubject struct {
	// ID is the unique identifier for this subject. Activity records and
	// real-time rooms are keyed by it.
	ID string `json:"id"`

	// Username is the human-readable login name.
	Username string `json:"username"`

	// Name is the display name, if available.
	Name string `json:"name,omitempty"`

	// Email is the subject's email address, if available.
	Email string `json:"email,omitempty"`

	// AvatarURL is the subject's avatar image URL, if available.
	AvatarURL string `json:"avatar_url,omitempty"`

	// Provider indicates how the subject was authenticated ("jwt",
	// "session", "none").
	Provider string `json:"provider,omitempty"`

	// ExpiresAt is when the authentication expires (unix seconds).
	// Zero means no expiry.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// IsExpired checks if the authentication has expired.
func (s *AuthSubject) IsExpired() bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return time.Now().Unix() > s.ExpiresAt
}

type contextKey string

// SubjectContextKey is the request-context key holding the *AuthSubject.
const SubjectContextKey contextKey = "auth-subject"

// ContextWithSubject returns a context carrying the authenticated subject.
func ContextWithSubject(ctx context.Context, subject *AuthSubject) context.Context {
	return context.WithValue(ctx, SubjectContextKey, subject)
}

// SubjectFromContext extracts the authenticated subject from a request
// context. The second return is false when the request was not authenticated.
func SubjectFromContext(ctx context.Context) (*AuthSubject, bool) {
	subject, ok := ctx.Value(SubjectContextKey).(*AuthSubject)
	return subject, ok && subject != nil
}
