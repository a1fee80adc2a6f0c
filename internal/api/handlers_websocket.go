// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package api

import (
	"net/http"

	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/tracker"
	ws "github.com/roomclerk/roomclerk/internal/websocket"
)

// WebSocket upgrades the connection and attaches a fresh session tracker.
//
// Authentication runs during the handshake rather than through the HTTP
// middleware: browsers cannot set Authorization headers on WebSocket
// connections, so credentials arrive via cookie and are resolved with the
// same logic the middleware uses. Each connection owns exactly one tracker;
// a dropped connection finalizes any live meeting through the client's read
// loop teardown.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "WebSocket service unavailable", ErrHubUnavailable)
		return
	}

	subject, err := h.authMw.Resolve(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	sessionTracker := tracker.New(h.db, h.hub)
	client := ws.NewClient(h.hub, conn, sessionTracker, subject)
	h.hub.Register <- client
	client.Start()
}
