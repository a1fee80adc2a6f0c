// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/database"
	"github.com/roomclerk/roomclerk/internal/models"
	ws "github.com/roomclerk/roomclerk/internal/websocket"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8490},
		Database: config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2},
		Security: config.SecurityConfig{
			AuthMode:          "none",
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		API: config.APIConfig{RecentActivitiesLimit: 5},
	}
}

func newTestHandler(t *testing.T, cfg *config.Config) (*Handler, *database.DB) {
	t.Helper()

	db, err := database.New(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	authMw, err := auth.NewMiddleware(&cfg.Security, nil, nil)
	require.NoError(t, err)

	handler := NewHandler(db, cfg, ws.NewHub(), authMw, auth.NewCredentialVerifier(&cfg.Security), nil)
	return handler, db
}

func withSubject(req *http.Request, userID string) *http.Request {
	ctx := auth.ContextWithSubject(req.Context(), &auth.AuthSubject{
		ID:       userID,
		Username: userID,
		Provider: "jwt",
	})
	return req.WithContext(ctx)
}

func postActivity(t *testing.T, handler *Handler, userID string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/meeting-activity", bytes.NewReader(payload))
	if userID != "" {
		req = withSubject(req, userID)
	}
	rec := httptest.NewRecorder()
	handler.MeetingActivity(rec, req)
	return rec
}

func TestMeetingActivity_RecordsSnapshot(t *testing.T) {
	handler, db := newTestHandler(t, testConfig())

	rec := postActivity(t, handler, "user-1", map[string]interface{}{
		"meeting_name":      "Design Review",
		"meeting_id":        "room-7",
		"status":            "completed",
		"duration_minutes":  45,
		"participant_count": 4,
		"start_time":        "2026-03-14T10:00:00Z",
		"end_time":          "2026-03-14T10:45:00Z",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Activity recorded", data["message"])
	assert.NotEmpty(t, data["activity_id"])

	stored, err := db.RecentActivities(context.Background(), "user-1", 5)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Design Review", stored[0].MeetingName)
	assert.Equal(t, models.StatusCompleted, stored[0].Status)
	require.NotNil(t, stored[0].DurationMinutes)
	assert.Equal(t, 45, *stored[0].DurationMinutes)
	assert.Equal(t, 4, stored[0].ParticipantCount)
	require.NotNil(t, stored[0].EndTime)
}

func TestMeetingActivity_OwnerFromAuthSubject(t *testing.T) {
	handler, db := newTestHandler(t, testConfig())

	// A user_id in the body must not override the authenticated subject.
	rec := postActivity(t, handler, "user-1", map[string]interface{}{
		"meeting_name": "Standup",
		"meeting_id":   "room-1",
		"user_id":      "someone-else",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	mine, err := db.RecentActivities(context.Background(), "user-1", 5)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := db.RecentActivities(context.Background(), "someone-else", 5)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestMeetingActivity_Unauthenticated(t *testing.T) {
	handler, db := newTestHandler(t, testConfig())

	rec := postActivity(t, handler, "", map[string]interface{}{
		"meeting_name": "Standup",
		"meeting_id":   "room-1",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_REQUIRED")

	stored, err := db.RecentActivities(context.Background(), "user-1", 5)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestMeetingActivity_Validation(t *testing.T) {
	handler, db := newTestHandler(t, testConfig())

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing meeting_name", map[string]interface{}{"meeting_id": "room-1"}},
		{"missing meeting_id", map[string]interface{}{"meeting_name": "Standup"}},
		{"unknown status", map[string]interface{}{"meeting_name": "Standup", "meeting_id": "room-1", "status": "ongoing"}},
		{"negative duration", map[string]interface{}{"meeting_name": "Standup", "meeting_id": "room-1", "duration_minutes": -5}},
		{"zero participants", map[string]interface{}{"meeting_name": "Standup", "meeting_id": "room-1", "participant_count": 0}},
		{"bad start_time", map[string]interface{}{"meeting_name": "Standup", "meeting_id": "room-1", "start_time": "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postActivity(t, handler, "user-1", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
		})
	}

	stored, err := db.RecentActivities(context.Background(), "user-1", 5)
	require.NoError(t, err)
	assert.Empty(t, stored, "rejected requests must not create records")
}

func TestMeetingActivity_InvalidBody(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/meeting-activity", strings.NewReader("{not json"))
	req = withSubject(req, "user-1")
	rec := httptest.NewRecorder()
	handler.MeetingActivity(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestMeetingActivity_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meeting-activity", nil)
	req = withSubject(req, "user-1")
	rec := httptest.NewRecorder()
	handler.MeetingActivity(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestRecentActivities_NewestFirstAndScoped(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig())

	for i, name := range []string{"First", "Second", "Third"} {
		start := time.Date(2026, 3, 14, 9+i, 0, 0, 0, time.UTC).Format(time.RFC3339)
		rec := postActivity(t, handler, "user-1", map[string]interface{}{
			"meeting_name": name,
			"meeting_id":   "room-1",
			"start_time":   start,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := postActivity(t, handler, "user-2", map[string]interface{}{
		"meeting_name": "Other Owner",
		"meeting_id":   "room-9",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recent-activities", nil)
	req = withSubject(req, "user-1")
	out := httptest.NewRecorder()
	handler.RecentActivities(out, req)

	require.Equal(t, http.StatusOK, out.Code)

	var resp struct {
		Status string                          `json:"status"`
		Data   models.RecentActivitiesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Data.Activities, 3)
	assert.Equal(t, "Third", resp.Data.Activities[0].MeetingName)
	assert.Equal(t, "First", resp.Data.Activities[2].MeetingName)
	for _, activity := range resp.Data.Activities {
		assert.Equal(t, "user-1", activity.UserID)
	}
}

func TestRecentActivities_LimitClamped(t *testing.T) {
	cfg := testConfig()
	cfg.API.RecentActivitiesLimit = 2
	handler, _ := newTestHandler(t, cfg)

	for _, name := range []string{"A", "B", "C"} {
		rec := postActivity(t, handler, "user-1", map[string]interface{}{
			"meeting_name": name,
			"meeting_id":   "room-1",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// limit=50 exceeds the configured window and collapses to it.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recent-activities?limit=50", nil)
	req = withSubject(req, "user-1")
	out := httptest.NewRecorder()
	handler.RecentActivities(out, req)

	require.Equal(t, http.StatusOK, out.Code)

	var resp struct {
		Data models.RecentActivitiesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Activities, 2)
}

func TestRecentActivities_EmptyHistory(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recent-activities", nil)
	req = withSubject(req, "user-1")
	out := httptest.NewRecorder()
	handler.RecentActivities(out, req)

	require.Equal(t, http.StatusOK, out.Code)
	assert.Contains(t, out.Body.String(), `"activities":[]`)
}

func TestActivityStats(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig())

	for _, duration := range []int{30, 60} {
		rec := postActivity(t, handler, "user-1", map[string]interface{}{
			"meeting_name":     "Sync",
			"meeting_id":       "room-1",
			"duration_minutes": duration,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity-stats", nil)
	req = withSubject(req, "user-1")
	out := httptest.NewRecorder()
	handler.ActivityStats(out, req)

	require.Equal(t, http.StatusOK, out.Code)

	var resp struct {
		Data models.ActivityStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.TotalMeetings)
	assert.Equal(t, 90, resp.Data.TotalMinutes)
	assert.InDelta(t, 45.0, resp.Data.AverageDuration, 0.01)
}
