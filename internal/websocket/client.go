// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/metrics"
	"github.com/roomclerk/roomclerk/internal/tracker"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB; signals are small
)

// clientIDCounter generates unique, monotonically increasing IDs for clients.
// DETERMINISM: This ensures clients can be sorted in a consistent order for
// room delivery, eliminating non-deterministic map iteration order.
var clientIDCounter atomic.Uint64

// inboundMessage is the envelope for signals received from a client. Data is
// deferred so each signal can decode its own payload shape.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// joinRoomData is the payload of a join-user-room signal.
type joinRoomData struct {
	UserID string `json:"user_id"`
}

// meetingStartedData is the payload of a meeting-started signal.
type meetingStartedData struct {
	MeetingID   string `json:"meeting_id"`
	MeetingName string `json:"meeting_name"`
	OwnerID     string `json:"owner_id"`
}

// Client is a middleman between one websocket connection and the hub. Each
// client owns a session tracker; all signal handling runs on the client's
// read loop, which is what makes the tracker safe without locks.
type Client struct {
	// id is a unique identifier for this client, used for deterministic
	// ordering. Assigned from an atomic counter.
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	tracker *tracker.Tracker

	// subject is the authenticated user behind the connection, nil when
	// authentication is disabled.
	subject *auth.AuthSubject
}

// NewClient creates a new Client with a unique deterministic ID.
func NewClient(hub *Hub, conn *websocket.Conn, sessionTracker *tracker.Tracker, subject *auth.AuthSubject) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, 256),
		tracker: sessionTracker,
		subject: subject,
	}
}

// ID returns the client's unique identifier for deterministic ordering.
func (c *Client) ID() uint64 {
	return c.id
}

// allowedOwner reports whether the connection may act for ownerID. With
// authentication disabled every owner is allowed.
func (c *Client) allowedOwner(ownerID string) bool {
	if c.subject == nil || c.subject.Provider == string(auth.AuthModeNone) {
		return true
	}
	return ownerID == c.subject.ID
}

// readPump pumps signals from the websocket connection into the tracker and
// hub. An abrupt connection loss takes the same finalization path as a clean
// meeting-ended signal: the deferred Disconnect writes the terminal record
// for any still-active session before the client unregisters.
func (c *Client) readPump() {
	defer func() {
		c.tracker.Disconnect(context.Background())
		c.hub.Unregister <- c
		_ = c.conn.Close() // best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logging.Warn().Err(err).Msg("dropping malformed websocket message")
			metrics.WSErrors.WithLabelValues("malformed_message").Inc()
			continue
		}

		c.handleSignal(&msg)
	}
}

// handleSignal dispatches one inbound signal. Unknown types are ignored so
// newer clients do not kill older servers.
func (c *Client) handleSignal(msg *inboundMessage) {
	metrics.WSMessagesReceived.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case MessageTypePing:
		select {
		case c.send <- Message{Type: MessageTypePong}:
		default:
		}

	case MessageTypeJoinUserRoom:
		c.handleJoinRoom(msg.Data)

	case MessageTypeMeetingStarted:
		c.handleMeetingStarted(msg.Data)

	case MessageTypeParticipantJoined:
		c.tracker.Join()

	case MessageTypeParticipantLeft:
		c.tracker.Leave()

	case MessageTypeMeetingEnded:
		c.tracker.End(context.Background())

	default:
		logging.Debug().Str("type", msg.Type).Msg("ignoring unknown websocket signal")
	}
}

func (c *Client) handleJoinRoom(data json.RawMessage) {
	var payload joinRoomData
	if err := json.Unmarshal(data, &payload); err != nil || payload.UserID == "" {
		logging.Warn().Msg("ignoring join-user-room with invalid payload")
		metrics.WSErrors.WithLabelValues("invalid_payload").Inc()
		return
	}

	// A connection only receives its own user's notifications.
	if !c.allowedOwner(payload.UserID) {
		logging.Warn().
			Str("requested_user_id", payload.UserID).
			Str("subject_id", c.subject.ID).
			Msg("rejecting join-user-room for another user")
		metrics.WSErrors.WithLabelValues("owner_mismatch").Inc()
		return
	}

	c.hub.joins <- subscription{client: c, userID: payload.UserID}
}

func (c *Client) handleMeetingStarted(data json.RawMessage) {
	var payload meetingStartedData
	if err := json.Unmarshal(data, &payload); err != nil {
		logging.Warn().Msg("ignoring meeting-started with invalid payload")
		metrics.WSErrors.WithLabelValues("invalid_payload").Inc()
		return
	}

	if !c.allowedOwner(payload.OwnerID) {
		logging.Warn().
			Str("owner_id", payload.OwnerID).
			Str("subject_id", c.subject.ID).
			Msg("rejecting meeting-started for another user")
		metrics.WSErrors.WithLabelValues("owner_mismatch").Inc()
		return
	}

	c.tracker.Start(context.Background(), payload.MeetingID, payload.MeetingName, payload.OwnerID)
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			payload, err := json.Marshal(message)
			if err != nil {
				logging.Error().Err(err).Msg("failed to marshal outbound message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Error().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
