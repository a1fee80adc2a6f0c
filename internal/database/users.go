// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roomclerk/roomclerk/internal/models"
)

// ErrUserNotFound is returned by GetUser for unknown user IDs.
var ErrUserNotFound = errors.New("user not found")

// UpsertUser creates or refreshes an owner profile. Profiles are written on
// login and on the first activity seen for an owner, so activity reads can
// expand the owner in one hop.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if user.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, name, email, avatar_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username   = excluded.username,
			name       = excluded.name,
			email      = excluded.email,
			avatar_url = excluded.avatar_url`,
		user.ID, user.Username, user.Name, user.Email, user.AvatarURL, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser looks up one owner profile by ID.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	var user models.User
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, username, name, email, avatar_url, created_at
		FROM users
		WHERE id = ?`,
		id,
	).Scan(&user.ID, &user.Username, &user.Name, &user.Email, &user.AvatarURL, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}
