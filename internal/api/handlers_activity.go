// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/database"
	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/metrics"
	"github.com/roomclerk/roomclerk/internal/models"
)

// MeetingActivity records a meeting-activity snapshot supplied by the client.
//
// The authenticated subject is the authoritative owner of the record; any
// user identifier in the request body is ignored. The HTTP path accepts the
// snapshot as-is (scheduled, missed and cancelled entries included) while
// the WebSocket path derives completed records from live signals.
func (h *Handler) MeetingActivity(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	subject, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required", nil)
		return
	}

	var req MeetingActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	record, err := h.buildActivityRecord(subject, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	h.upsertOwner(r, subject)

	start := time.Now()
	stored, err := h.db.AppendActivity(r.Context(), record)
	if err != nil {
		if errors.Is(err, database.ErrValidation) {
			metrics.RecordActivityWriteError("http", "validation")
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		metrics.RecordActivityWriteError("http", "database")
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to store activity", err)
		return
	}

	metrics.RecordActivity("http", string(stored.Status))

	// Notify only after the record is durable, matching the session tracker.
	if h.hub != nil {
		h.hub.NotifyUser(subject.ID, models.NotificationFromRecord(stored))
	}

	respondSuccess(w, http.StatusOK, models.ActivityCreatedResponse{
		Message:    "Activity recorded",
		ActivityID: stored.ID.String(),
	}, time.Since(start))
}

// buildActivityRecord maps a validated request to a store record owned by
// the authenticated subject.
func (h *Handler) buildActivityRecord(subject *auth.AuthSubject, req *MeetingActivityRequest) (*models.ActivityRecord, error) {
	status, ok := models.ParseActivityStatus(req.Status)
	if !ok {
		return nil, errors.New("status must be one of: completed, scheduled, missed, cancelled")
	}

	startTime := time.Now().UTC()
	if req.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return nil, errors.New("start_time must be a valid date/time in RFC3339 format")
		}
		startTime = parsed.UTC()
	}

	var endTime *time.Time
	if req.EndTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			return nil, errors.New("end_time must be a valid date/time in RFC3339 format")
		}
		utc := parsed.UTC()
		endTime = &utc
	}

	return &models.ActivityRecord{
		UserID:           subject.ID,
		MeetingName:      req.MeetingName,
		MeetingID:        req.MeetingID,
		Status:           status,
		DurationMinutes:  req.DurationMinutes,
		ParticipantCount: req.ParticipantCount,
		StartTime:        startTime,
		EndTime:          endTime,
	}, nil
}

// upsertOwner refreshes the owner's user row from the auth subject so the
// read path can expand records without a directory lookup. Failures are
// logged, not surfaced: the activity write is the operation that matters.
func (h *Handler) upsertOwner(r *http.Request, subject *auth.AuthSubject) {
	user := &models.User{
		ID:        subject.ID,
		Username:  subject.Username,
		Name:      subject.Name,
		Email:     subject.Email,
		AvatarURL: subject.AvatarURL,
	}
	if err := h.db.UpsertUser(r.Context(), user); err != nil {
		logging.Warn().Err(err).Str("user_id", sanitizeLogValue(subject.ID)).Msg("Failed to upsert activity owner")
	}
}

// RecentActivities returns the newest activity records owned by the
// authenticated subject, newest first. The window is fixed and small; the
// limit parameter can only shrink it.
func (h *Handler) RecentActivities(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	subject, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required", nil)
		return
	}

	maxLimit := 10
	if h.config != nil && h.config.API.RecentActivitiesLimit > 0 {
		maxLimit = h.config.API.RecentActivitiesLimit
	}

	limit := getIntParam(r, "limit", maxLimit)
	if limit < 1 || limit > maxLimit {
		limit = maxLimit
	}

	start := time.Now()
	records, err := h.db.RecentActivities(r.Context(), subject.ID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load activities", err)
		return
	}
	metrics.RecordDBQuery("select", "activities", time.Since(start))

	activities := make([]models.ActivityRecord, 0, len(records))
	for _, record := range records {
		activities = append(activities, *record)
	}

	respondSuccess(w, http.StatusOK, models.RecentActivitiesResponse{
		Activities: activities,
	}, time.Since(start))
}

// ActivityStats returns aggregate meeting statistics for the authenticated
// subject.
func (h *Handler) ActivityStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	subject, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required", nil)
		return
	}

	start := time.Now()
	stats, err := h.db.ActivityStats(r.Context(), subject.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load activity stats", err)
		return
	}

	respondSuccess(w, http.StatusOK, stats, time.Since(start))
}
