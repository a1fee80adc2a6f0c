// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/models"
)

// AppendActivity inserts one activity record and returns the stored form with
// generated fields (id, created_at, defaults) filled in. The input is not
// mutated. Writes that fail field validation return an error wrapping
// ErrValidation.
func (db *DB) AppendActivity(ctx context.Context, rec *models.ActivityRecord) (*models.ActivityRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrValidation)
	}

	stored := *rec
	stored.Owner = nil

	if stored.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if stored.MeetingName == "" {
		return nil, fmt.Errorf("%w: meeting_name is required", ErrValidation)
	}
	if stored.MeetingID == "" {
		return nil, fmt.Errorf("%w: meeting_id is required", ErrValidation)
	}
	if stored.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start_time is required", ErrValidation)
	}
	if stored.EndTime != nil && stored.EndTime.Before(stored.StartTime) {
		return nil, fmt.Errorf("%w: end_time must not be before start_time", ErrValidation)
	}
	if stored.Status == "" {
		stored.Status = models.StatusCompleted
	}
	if !stored.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, stored.Status)
	}
	if stored.DurationMinutes != nil && *stored.DurationMinutes < 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be non-negative", ErrValidation)
	}
	if stored.ParticipantCount < 1 {
		stored.ParticipantCount = 1
	}

	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	var durationMinutes sql.NullInt32
	if stored.DurationMinutes != nil {
		durationMinutes = sql.NullInt32{Int32: int32(*stored.DurationMinutes), Valid: true} //nolint:gosec // bounded by validation above
	}
	var endTime sql.NullTime
	if stored.EndTime != nil {
		endTime = sql.NullTime{Time: stored.EndTime.UTC(), Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO activities (
			id, user_id, meeting_name, meeting_id, status,
			duration_minutes, participant_count, start_time, end_time, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID.String(), stored.UserID, stored.MeetingName, stored.MeetingID,
		string(stored.Status), durationMinutes, stored.ParticipantCount,
		stored.StartTime.UTC(), endTime, stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert activity: %w", err)
	}

	logging.Debug().
		Str("activity_id", stored.ID.String()).
		Str("user_id", stored.UserID).
		Str("meeting_id", stored.MeetingID).
		Msg("activity appended")

	return &stored, nil
}

// RecentActivities returns the newest activities owned by userID, most recent
// first, with the owner expanded from the users table. Ties on created_at are
// broken by id so pagination-free windows stay stable across reads.
func (db *DB) RecentActivities(ctx context.Context, userID string, limit int) ([]*models.ActivityRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if limit < 1 {
		limit = 1
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			a.id, a.user_id, a.meeting_name, a.meeting_id, a.status,
			a.duration_minutes, a.participant_count, a.start_time, a.end_time, a.created_at,
			u.id, u.username, u.name, u.email, u.avatar_url
		FROM activities a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.user_id = ?
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activities: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("failed to close rows")
		}
	}()

	activities := make([]*models.ActivityRecord, 0, limit)
	for rows.Next() {
		rec, err := scanActivityRow(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return activities, nil
}

// ActivityStats returns per-owner aggregates over the full activity history.
func (db *DB) ActivityStats(ctx context.Context, userID string) (*models.ActivityStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}

	var (
		total       int
		minutes     sql.NullInt64
		avgDuration sql.NullFloat64
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(duration_minutes),
			AVG(duration_minutes)
		FROM activities
		WHERE user_id = ?`,
		userID,
	).Scan(&total, &minutes, &avgDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity stats: %w", err)
	}

	stats := &models.ActivityStats{TotalMeetings: total}
	if minutes.Valid {
		stats.TotalMinutes = int(minutes.Int64)
	}
	if avgDuration.Valid {
		stats.AverageDuration = avgDuration.Float64
	}
	return stats, nil
}

// scanner abstracts *sql.Rows for row scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanActivityRow(row scanner) (*models.ActivityRecord, error) {
	var (
		rec         models.ActivityRecord
		id          string
		status      string
		duration    sql.NullInt32
		endTime     sql.NullTime
		ownerID     sql.NullString
		ownerUser   sql.NullString
		ownerName   sql.NullString
		ownerEmail  sql.NullString
		ownerAvatar sql.NullString
	)
	err := row.Scan(
		&id, &rec.UserID, &rec.MeetingName, &rec.MeetingID, &status,
		&duration, &rec.ParticipantCount, &rec.StartTime, &endTime, &rec.CreatedAt,
		&ownerID, &ownerUser, &ownerName, &ownerEmail, &ownerAvatar,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity row: %w", err)
	}

	rec.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid activity id %q: %w", id, err)
	}
	rec.Status = models.ActivityStatus(status)
	if duration.Valid {
		d := int(duration.Int32)
		rec.DurationMinutes = &d
	}
	if endTime.Valid {
		t := endTime.Time
		rec.EndTime = &t
	}
	if ownerID.Valid {
		rec.Owner = &models.User{
			ID:        ownerID.String,
			Username:  ownerUser.String,
			Name:      ownerName.String,
			Email:     ownerEmail.String,
			AvatarURL: ownerAvatar.String,
		}
	}
	return &rec, nil
}
