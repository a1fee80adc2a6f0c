// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

// Package api provides HTTP handlers for the Roomclerk application.
//
// errors.go - Common API error definitions
package api

import "errors"

// Common API errors
var (
	// ErrAuthDisabled indicates login was attempted while auth_mode=none
	ErrAuthDisabled = errors.New("authentication is disabled")

	// ErrHubUnavailable indicates the WebSocket hub is not running
	ErrHubUnavailable = errors.New("websocket hub is not available")
)
