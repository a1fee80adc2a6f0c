// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityStatus classifies how a meeting ended up in the activity log.
type ActivityStatus string

const (
	StatusCompleted ActivityStatus = "completed"
	StatusScheduled ActivityStatus = "scheduled"
	StatusMissed    ActivityStatus = "missed"
	StatusCancelled ActivityStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ActivityStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusScheduled, StatusMissed, StatusCancelled:
		return true
	}
	return false
}

// ParseActivityStatus converts a string to an ActivityStatus.
// An empty string maps to StatusCompleted, the write-path default.
func ParseActivityStatus(s string) (ActivityStatus, bool) {
	if s == "" {
		return StatusCompleted, true
	}
	status := ActivityStatus(s)
	return status, status.Valid()
}

// ActivityRecord is one durable meeting-activity log entry. Records are
// write-once: once appended to the store they are never updated or deleted.
type ActivityRecord struct {
	ID               uuid.UUID      `json:"id"`
	UserID           string         `json:"user_id"`
	MeetingName      string         `json:"meeting_name"`
	MeetingID        string         `json:"meeting_id"`
	Status           ActivityStatus `json:"status"`
	DurationMinutes  *int           `json:"duration_minutes,omitempty"`
	ParticipantCount int            `json:"participant_count"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          *time.Time     `json:"end_time,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`

	// Owner holds the one-hop expansion of UserID for read paths.
	// Nil on the write path.
	Owner *User `json:"owner,omitempty"`
}

// User carries the display fields an activity's owner is expanded to.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityStats aggregates one owner's activity records.
type ActivityStats struct {
	TotalMeetings   int     `json:"total_meetings"`
	TotalMinutes    int     `json:"total_minutes"`
	AverageDuration float64 `json:"average_duration"`
}

// ActivityNotification is the real-time payload delivered to an owner's
// connected clients after an activity record is stored.
type ActivityNotification struct {
	ID               uuid.UUID      `json:"id"`
	MeetingName      string         `json:"meeting_name"`
	Status           ActivityStatus `json:"status"`
	DurationMinutes  *int           `json:"duration_minutes,omitempty"`
	ParticipantCount int            `json:"participant_count"`
	CreatedAt        time.Time      `json:"created_at"`
}

// NotificationFromRecord builds the fan-out payload for a stored record.
func NotificationFromRecord(record *ActivityRecord) *ActivityNotification {
	return &ActivityNotification{
		ID:               record.ID,
		MeetingName:      record.MeetingName,
		Status:           record.Status,
		DurationMinutes:  record.DurationMinutes,
		ParticipantCount: record.ParticipantCount,
		CreatedAt:        record.CreatedAt,
	}
}
