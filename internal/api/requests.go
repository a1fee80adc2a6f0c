// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

// requests.go - Request body shapes with validation tags.
//
// Validation runs through the validation package singleton, which registers
// the rfc3339 and activitystatus rules used below.
package api

// MeetingActivityRequest is the body of POST /meeting-activity. The
// authenticated subject is the record owner; a user_id in the body is
// ignored.
type MeetingActivityRequest struct {
	MeetingName      string `json:"meeting_name" validate:"required,max=200"`
	MeetingID        string `json:"meeting_id" validate:"required,max=100"`
	Status           string `json:"status" validate:"omitempty,activitystatus"`
	DurationMinutes  *int   `json:"duration_minutes" validate:"omitempty,min=0"`
	ParticipantCount int    `json:"participant_count" validate:"omitempty,min=1"`
	StartTime        string `json:"start_time" validate:"omitempty,rfc3339"`
	EndTime          string `json:"end_time" validate:"omitempty,rfc3339"`
}

// loginRequestValidation mirrors models.LoginRequest for validation.
type loginRequestValidation struct {
	Username string `validate:"required,min=1,max=100"`
	Password string `validate:"required,min=1,max=200"`
}
