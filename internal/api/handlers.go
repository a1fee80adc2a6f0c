// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/database"
	"github.com/roomclerk/roomclerk/internal/logging"
	ws "github.com/roomclerk/roomclerk/internal/websocket"
)

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, WebSocket upgrader (this file)
//   - helpers.go: Shared helper functions
//   - handlers_activity.go: Activity recording and history endpoints
//   - handlers_auth.go: Login and logout
//   - handlers_health.go: Health/monitoring endpoints
//   - handlers_websocket.go: WebSocket upgrade endpoint
type Handler struct {
	db         *database.DB
	config     *config.Config
	hub        *ws.Hub
	authMw     *auth.Middleware
	verifier   *auth.CredentialVerifier
	jwtManager *auth.JWTManager
	startTime  time.Time
}

// NewHandler creates a new API handler with all required dependencies.
//
// Dependencies:
//   - db: DuckDB-backed activity store
//   - cfg: Application configuration
//   - hub: WebSocket hub for real-time activity notifications
//   - authMw: Authentication middleware, also used to resolve the
//     subject during the WebSocket handshake
//   - verifier: Credential verifier for POST /auth/login
//   - jwtManager: JWT token manager, nil unless auth_mode=jwt
func NewHandler(db *database.DB, cfg *config.Config, hub *ws.Hub, authMw *auth.Middleware, verifier *auth.CredentialVerifier, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		db:         db,
		config:     cfg,
		hub:        hub,
		authMw:     authMw,
		verifier:   verifier,
		jwtManager: jwtManager,
		startTime:  time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow-client attacks.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Legitimate browser WebSockets always include Origin. Only non-browser
	// clients (curl, scripts, native apps) omit it; those bypass CORS anyway,
	// so an empty Origin is rejected.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// If config is nil, allow by default (fail open for tests/development)
	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
