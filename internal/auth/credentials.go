// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/roomclerk/roomclerk/internal/config"
)

// CredentialVerifier checks login credentials against the configured local
// account. When a bcrypt hash is configured it takes precedence over the
// plaintext password.
type CredentialVerifier struct {
	username     string
	password     string
	passwordHash string
}

// NewCredentialVerifier creates a verifier from the security configuration.
func NewCredentialVerifier(cfg *config.SecurityConfig) *CredentialVerifier {
	return &CredentialVerifier{
		username:     cfg.AdminUsername,
		password:     cfg.AdminPassword,
		passwordHash: cfg.AdminPasswordHash,
	}
}

// Verify checks a username/password pair and returns the authenticated
// subject on success. Comparisons are constant-time so attempts against
// unknown usernames are indistinguishable from wrong passwords.
func (v *CredentialVerifier) Verify(username, password string) (*AuthSubject, error) {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1

	var passwordMatch bool
	if v.passwordHash != "" {
		passwordMatch = bcrypt.CompareHashAndPassword([]byte(v.passwordHash), []byte(password)) == nil
	} else {
		passwordMatch = subtle.ConstantTimeCompare([]byte(password), []byte(v.password)) == 1
	}

	if !usernameMatch || !passwordMatch {
		return nil, ErrInvalidCredentials
	}

	return &AuthSubject{
		ID:       v.username,
		Username: v.username,
	}, nil
}

// HashPassword produces a bcrypt hash suitable for the password hash setting.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
