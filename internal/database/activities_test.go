// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestAppendActivity_DefaultsApplied(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	stored, err := db.AppendActivity(ctx, &models.ActivityRecord{
		UserID:      "user-1",
		MeetingName: "Weekly Sync",
		MeetingID:   "room-abc",
		StartTime:   start,
	})
	require.NoError(t, err)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", stored.ID.String())
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.ParticipantCount)
	assert.Nil(t, stored.DurationMinutes)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestAppendActivity_Validation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Now().UTC()

	tests := []struct {
		name string
		rec  *models.ActivityRecord
	}{
		{"nil record", nil},
		{"missing user", &models.ActivityRecord{MeetingName: "m", MeetingID: "r", StartTime: start}},
		{"missing meeting name", &models.ActivityRecord{UserID: "u", MeetingID: "r", StartTime: start}},
		{"missing meeting id", &models.ActivityRecord{UserID: "u", MeetingName: "m", StartTime: start}},
		{"missing start time", &models.ActivityRecord{UserID: "u", MeetingName: "m", MeetingID: "r"}},
		{"negative duration", &models.ActivityRecord{
			UserID: "u", MeetingName: "m", MeetingID: "r", StartTime: start,
			DurationMinutes: intPtr(-5),
		}},
		{"unknown status", &models.ActivityRecord{
			UserID: "u", MeetingName: "m", MeetingID: "r", StartTime: start,
			Status: models.ActivityStatus("paused"),
		}},
		{"end before start", &models.ActivityRecord{
			UserID: "u", MeetingName: "m", MeetingID: "r", StartTime: start,
			EndTime: timePtr(start.Add(-time.Minute)),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.AppendActivity(ctx, tt.rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "expected ErrValidation, got %v", err)
		})
	}

	// Rejected writes must not reach the table.
	stats, err := db.ActivityStats(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalMeetings)
}

func TestAppendActivity_InputNotMutated(t *testing.T) {
	db := newTestDB(t)

	in := &models.ActivityRecord{
		UserID:      "user-1",
		MeetingName: "Standup",
		MeetingID:   "room-1",
		StartTime:   time.Now().UTC(),
	}
	stored, err := db.AppendActivity(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "00000000-0000-0000-0000-000000000000", in.ID.String())
	assert.Empty(t, in.Status)
	assert.Zero(t, in.ParticipantCount)
	assert.NotSame(t, in, stored)
}

func TestRecentActivities_NewestFirstAndScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertUser(ctx, &models.User{
		ID: "user-1", Username: "ada", Name: "Ada Lovelace",
	}))

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := db.AppendActivity(ctx, &models.ActivityRecord{
			UserID:          "user-1",
			MeetingName:     "Meeting",
			MeetingID:       "room-1",
			StartTime:       base,
			DurationMinutes: intPtr(i + 1),
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	// Another owner's activity must not leak into user-1's window.
	_, err := db.AppendActivity(ctx, &models.ActivityRecord{
		UserID: "user-2", MeetingName: "Other", MeetingID: "room-2",
		StartTime: base, CreatedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)

	recent, err := db.RecentActivities(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	assert.Equal(t, 5, *recent[0].DurationMinutes)
	assert.Equal(t, 4, *recent[1].DurationMinutes)
	assert.Equal(t, 3, *recent[2].DurationMinutes)
	for _, rec := range recent {
		assert.Equal(t, "user-1", rec.UserID)
		require.NotNil(t, rec.Owner)
		assert.Equal(t, "ada", rec.Owner.Username)
		assert.Equal(t, "Ada Lovelace", rec.Owner.Name)
	}
}

func TestRecentActivities_UnknownOwnerStillReturned(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.AppendActivity(ctx, &models.ActivityRecord{
		UserID: "ghost", MeetingName: "m", MeetingID: "r", StartTime: time.Now().UTC(),
	})
	require.NoError(t, err)

	recent, err := db.RecentActivities(ctx, "ghost", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Nil(t, recent[0].Owner)
}

func TestRecentActivities_EmptyHistory(t *testing.T) {
	db := newTestDB(t)

	recent, err := db.RecentActivities(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestActivityStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, d := range []int{10, 20, 30} {
		_, err := db.AppendActivity(ctx, &models.ActivityRecord{
			UserID: "user-1", MeetingName: "m", MeetingID: "r",
			StartTime: time.Now().UTC(), DurationMinutes: intPtr(d),
		})
		require.NoError(t, err)
	}
	// An activity with no duration counts toward totals but not minutes.
	_, err := db.AppendActivity(ctx, &models.ActivityRecord{
		UserID: "user-1", MeetingName: "m", MeetingID: "r",
		StartTime: time.Now().UTC(),
	})
	require.NoError(t, err)

	stats, err := db.ActivityStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalMeetings)
	assert.Equal(t, 60, stats.TotalMinutes)
	assert.InDelta(t, 20.0, stats.AverageDuration, 0.001)
}

func TestUpsertUser_Refresh(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: "u1", Username: "old"}))
	require.NoError(t, db.UpsertUser(ctx, &models.User{
		ID: "u1", Username: "new", Email: "new@example.com",
	}))

	user, err := db.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", user.Username)
	assert.Equal(t, "new@example.com", user.Email)
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
