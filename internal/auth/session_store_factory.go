// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package auth

import (
	"fmt"

	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/logging"
)

// NewSessionStore builds the configured session store backend. The returned
// cleanup function releases backend resources and must be called on shutdown.
func NewSessionStore(cfg *config.SecurityConfig) (SessionStore, func() error, error) {
	switch cfg.SessionStore {
	case "", "memory":
		logging.Info().Msg("using in-memory session store")
		return NewMemorySessionStore(), func() error { return nil }, nil
	case "badger":
		store, db, err := OpenBadgerSessionStore(cfg.SessionStorePath)
		if err != nil {
			return nil, nil, err
		}
		logging.Info().Str("path", cfg.SessionStorePath).Msg("using badger session store")
		return store, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store backend: %s", cfg.SessionStore)
	}
}
