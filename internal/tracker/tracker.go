// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

// Package tracker implements the per-connection meeting session state
// machine. A tracker moves between three states: Idle (no active meeting),
// Active (session populated), and Finalizing (terminal write in flight).
// Finalizing is never observable from outside: the session is cleared before
// the write is issued, so by the time any other signal runs the tracker is
// already Idle.
//
// A Tracker is owned by exactly one connection goroutine and is not safe for
// concurrent use. All signal handling for a connection runs on its read loop,
// which is what guarantees the exactly-one-record invariant without locks.
package tracker

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/metrics"
	"github.com/roomclerk/roomclerk/internal/models"
)

// Store is the durable sink for finalized sessions.
type Store interface {
	AppendActivity(ctx context.Context, rec *models.ActivityRecord) (*models.ActivityRecord, error)
}

// Notifier fans a stored activity out to the owner's live connections.
type Notifier interface {
	NotifyUser(userID string, notification *models.ActivityNotification)
}

// Finalization reasons, used for logging and metrics.
const (
	ReasonEnded      = "ended"
	ReasonDisconnect = "disconnect"
)

// SessionState holds the ephemeral state of one active meeting attachment.
type SessionState struct {
	MeetingID        string
	MeetingName      string
	OwnerID          string
	StartTime        time.Time
	ParticipantCount int
	PeakParticipants int
}

// Tracker is the per-connection session state machine.
type Tracker struct {
	store    Store
	notifier Notifier
	clock    func() time.Time

	// state is nil when Idle. Owned by the connection goroutine.
	state *SessionState

	// writes counts in-flight terminal writes.
	writes sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source. Tests use this to make durations
// deterministic.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// New creates an Idle tracker.
func New(store Store, notifier Notifier, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		notifier: notifier,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Active reports whether a meeting session is currently being tracked.
func (t *Tracker) Active() bool {
	return t.state != nil
}

// Session returns a copy of the current session state, or nil when Idle.
func (t *Tracker) Session() *SessionState {
	if t.state == nil {
		return nil
	}
	copied := *t.state
	return &copied
}

// Start begins tracking a meeting. If a session is already active it is
// finalized first, so a client that starts a second meeting without ending
// the first still produces exactly one record per meeting.
func (t *Tracker) Start(ctx context.Context, meetingID, meetingName, ownerID string) {
	if meetingID == "" || meetingName == "" || ownerID == "" {
		logging.Warn().
			Str("meeting_id", meetingID).
			Str("meeting_name", meetingName).
			Str("owner_id", ownerID).
			Msg("ignoring meeting start with missing identity")
		return
	}

	if t.state != nil {
		logging.Info().
			Str("previous_meeting_id", t.state.MeetingID).
			Str("meeting_id", meetingID).
			Msg("new meeting started while one was active, finalizing previous")
		t.finalize(ctx, ReasonEnded)
	}

	t.state = &SessionState{
		MeetingID:        meetingID,
		MeetingName:      meetingName,
		OwnerID:          ownerID,
		StartTime:        t.clock(),
		ParticipantCount: 1,
		PeakParticipants: 1,
	}
	metrics.MeetingSessionsStarted.Inc()

	logging.Debug().
		Str("meeting_id", meetingID).
		Str("owner_id", ownerID).
		Msg("meeting session started")
}

// Join records a participant joining. No-op when Idle.
func (t *Tracker) Join() {
	if t.state == nil {
		return
	}
	t.state.ParticipantCount++
	if t.state.ParticipantCount > t.state.PeakParticipants {
		t.state.PeakParticipants = t.state.ParticipantCount
	}
}

// Leave records a participant leaving. The count never drops below 1: the
// local user is always present while the session is active. No-op when Idle.
func (t *Tracker) Leave() {
	if t.state == nil {
		return
	}
	if t.state.ParticipantCount > 1 {
		t.state.ParticipantCount--
	}
}

// End finalizes the session in response to an explicit meeting-ended signal.
// No-op when Idle.
func (t *Tracker) End(ctx context.Context) {
	t.finalize(ctx, ReasonEnded)
}

// Disconnect finalizes the session when the connection terminates without a
// meeting-ended signal. No-op when Idle, so clean disconnects after End do
// not produce a second record.
func (t *Tracker) Disconnect(ctx context.Context) {
	t.finalize(ctx, ReasonDisconnect)
}

// finalize computes the duration, clears the session, and schedules the
// terminal write. The session is cleared before the write so re-entry during
// a slow store cannot observe Active state. The write runs on its own
// goroutine with the connection context detached: a meeting-ended signal or
// connection teardown only pays for scheduling, never for the store. A
// failed write is logged, not retried.
func (t *Tracker) finalize(ctx context.Context, reason string) {
	state := t.state
	if state == nil {
		return
	}
	t.state = nil

	now := t.clock()
	duration := int(math.Round(now.Sub(state.StartTime).Minutes()))
	if duration < 0 {
		duration = 0
	}
	endTime := now

	record := &models.ActivityRecord{
		UserID:           state.OwnerID,
		MeetingName:      state.MeetingName,
		MeetingID:        state.MeetingID,
		Status:           models.StatusCompleted,
		DurationMinutes:  &duration,
		ParticipantCount: state.ParticipantCount,
		StartTime:        state.StartTime,
		EndTime:          &endTime,
	}

	metrics.RecordSessionFinalized(reason, duration, state.PeakParticipants)

	writeCtx := context.WithoutCancel(ctx)
	t.writes.Add(1)
	go func() {
		defer t.writes.Done()
		t.persist(writeCtx, state, record, reason, duration)
	}()
}

// persist issues the terminal write and, on success, notifies the owner.
func (t *Tracker) persist(ctx context.Context, state *SessionState, record *models.ActivityRecord, reason string, duration int) {
	stored, err := t.store.AppendActivity(ctx, record)
	if err != nil {
		metrics.RecordActivityWriteError("tracker", "database")
		logging.Error().Err(err).
			Str("meeting_id", state.MeetingID).
			Str("owner_id", state.OwnerID).
			Str("reason", reason).
			Msg("failed to record meeting activity")
		return
	}
	metrics.RecordActivity("tracker", string(stored.Status))

	logging.Info().
		Str("activity_id", stored.ID.String()).
		Str("meeting_id", state.MeetingID).
		Str("owner_id", state.OwnerID).
		Int("duration_minutes", duration).
		Int("participant_count", state.ParticipantCount).
		Str("reason", reason).
		Msg("meeting activity recorded")

	if t.notifier != nil {
		t.notifier.NotifyUser(state.OwnerID, models.NotificationFromRecord(stored))
	}
}
