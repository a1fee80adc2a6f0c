// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package websocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/models"
	"github.com/roomclerk/roomclerk/internal/tracker"
)

// recordingStore captures tracker writes in client signal tests. Terminal
// writes arrive on their own goroutines, so access is mutex-guarded.
type recordingStore struct {
	mu      sync.Mutex
	records []*models.ActivityRecord
}

func (s *recordingStore) AppendActivity(ctx context.Context, rec *models.ActivityRecord) (*models.ActivityRecord, error) {
	stored := *rec
	stored.ID = uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, &stored)
	return &stored, nil
}

func (s *recordingStore) snapshot() []*models.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.ActivityRecord(nil), s.records...)
}

func signal(t *testing.T, msgType string, data interface{}) *inboundMessage {
	t.Helper()
	msg := &inboundMessage{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	return msg
}

func TestClient_MeetingLifecycleSignals(t *testing.T) {
	store := &recordingStore{}
	h := NewHub()
	client := NewClient(h, nil, tracker.New(store, h), nil)

	client.handleSignal(signal(t, MessageTypeMeetingStarted, meetingStartedData{
		MeetingID:   "m1",
		MeetingName: "Standup",
		OwnerID:     "u1",
	}))
	require.True(t, client.tracker.Active())

	client.handleSignal(signal(t, MessageTypeParticipantJoined, nil))
	client.handleSignal(signal(t, MessageTypeParticipantJoined, nil))
	client.handleSignal(signal(t, MessageTypeParticipantLeft, nil))
	client.handleSignal(signal(t, MessageTypeMeetingEnded, nil))

	assert.False(t, client.tracker.Active())
	waitFor(t, func() bool { return len(store.snapshot()) == 1 }, "terminal write not issued")
	records := store.snapshot()
	assert.Equal(t, "m1", records[0].MeetingID)
	assert.Equal(t, 2, records[0].ParticipantCount)
	assert.Equal(t, models.StatusCompleted, records[0].Status)
}

func TestClient_MeetingStartedOwnerMismatchRejected(t *testing.T) {
	store := &recordingStore{}
	h := NewHub()
	subject := &auth.AuthSubject{ID: "u1", Username: "ada", Provider: string(auth.AuthModeJWT)}
	client := NewClient(h, nil, tracker.New(store, h), subject)

	client.handleSignal(signal(t, MessageTypeMeetingStarted, meetingStartedData{
		MeetingID:   "m1",
		MeetingName: "Standup",
		OwnerID:     "someone-else",
	}))

	assert.False(t, client.tracker.Active())
}

func TestClient_MeetingStartedAllowedWithoutAuth(t *testing.T) {
	store := &recordingStore{}
	h := NewHub()
	client := NewClient(h, nil, tracker.New(store, h), nil)

	client.handleSignal(signal(t, MessageTypeMeetingStarted, meetingStartedData{
		MeetingID: "m1", MeetingName: "Standup", OwnerID: "anyone",
	}))

	assert.True(t, client.tracker.Active())
}

func TestClient_JoinUserRoom(t *testing.T) {
	h := startHub(t)
	client := NewClient(h, nil, tracker.New(nil, nil), &auth.AuthSubject{
		ID: "u1", Username: "ada", Provider: string(auth.AuthModeJWT),
	})
	h.Register <- client
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "client not registered")

	client.handleSignal(signal(t, MessageTypeJoinUserRoom, joinRoomData{UserID: "u1"}))
	waitFor(t, func() bool { return h.RoomSize("u1") == 1 }, "client did not join room")
}

func TestClient_JoinOtherUsersRoomRejected(t *testing.T) {
	h := startHub(t)
	client := NewClient(h, nil, tracker.New(nil, nil), &auth.AuthSubject{
		ID: "u1", Username: "ada", Provider: string(auth.AuthModeJWT),
	})
	h.Register <- client
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "client not registered")

	client.handleSignal(signal(t, MessageTypeJoinUserRoom, joinRoomData{UserID: "u2"}))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, h.RoomSize("u2"))
	assert.Equal(t, 0, h.RoomCount())
}

func TestClient_PingPong(t *testing.T) {
	h := NewHub()
	client := NewClient(h, nil, tracker.New(nil, nil), nil)

	client.handleSignal(signal(t, MessageTypePing, nil))

	select {
	case msg := <-client.send:
		assert.Equal(t, MessageTypePong, msg.Type)
	default:
		t.Fatal("no pong queued")
	}
}

func TestClient_InvalidPayloadsIgnored(t *testing.T) {
	store := &recordingStore{}
	h := NewHub()
	client := NewClient(h, nil, tracker.New(store, h), nil)

	client.handleSignal(&inboundMessage{Type: MessageTypeMeetingStarted, Data: json.RawMessage(`"not an object"`)})
	assert.False(t, client.tracker.Active())

	client.handleSignal(&inboundMessage{Type: MessageTypeJoinUserRoom, Data: json.RawMessage(`{}`)})
	client.handleSignal(&inboundMessage{Type: "unknown-signal"})

	assert.Empty(t, store.snapshot())
}
