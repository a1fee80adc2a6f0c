// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package models

import (
	"time"
)

// APIResponse is the standardized envelope used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed, see Data
//   - "error": Request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"activities": [...]},
//	  "metadata": {"timestamp": "2026-08-31T12:00:00Z", "query_time_ms": 4}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError carries structured error details.
//
// Error codes used by Roomclerk:
//   - AUTH_REQUIRED: No authenticated user on a protected route (401)
//   - VALIDATION_ERROR: Invalid or missing input (400)
//   - DATABASE_ERROR: Store operation failure (500)
//   - METHOD_NOT_ALLOWED: Wrong HTTP verb (405)
//   - SERVICE_ERROR: A required component is unavailable (503)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecentActivitiesResponse is the payload of GET /recent-activities.
type RecentActivitiesResponse struct {
	Activities []ActivityRecord `json:"activities"`
}

// ActivityCreatedResponse is the payload of POST /meeting-activity.
type ActivityCreatedResponse struct {
	Message    string `json:"message"`
	ActivityID string `json:"activity_id"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the payload of a successful login.
type LoginResponse struct {
	Username  string    `json:"username"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
