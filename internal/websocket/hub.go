// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/metrics"
	"github.com/roomclerk/roomclerk/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was
	// exceeded. This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types exchanged over the WebSocket.
const (
	// Inbound signals
	MessageTypeJoinUserRoom      = "join-user-room"
	MessageTypeMeetingStarted    = "meeting-started"
	MessageTypeParticipantJoined = "participant-joined"
	MessageTypeParticipantLeft   = "participant-left"
	MessageTypeMeetingEnded      = "meeting-ended"
	MessageTypePing              = "ping"

	// Outbound messages
	MessageTypeActivityUpdated = "activity-updated"
	MessageTypePong            = "pong"
)

// Message represents an outbound WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// subscription binds a client to a user room.
type subscription struct {
	client *Client
	userID string
}

// notification is a room-targeted message queued for delivery.
type notification struct {
	userID  string
	message Message
}

// Hub maintains active clients grouped into per-user rooms and delivers
// activity notifications to a single room. A client belongs to at most one
// room; joining a second room moves it.
type Hub struct {
	// rooms maps a user ID to the clients subscribed to that user's
	// notifications.
	rooms map[string]map[*Client]bool

	// clients maps connected clients to their room ("" before
	// join-user-room).
	clients map[*Client]string

	Register   chan *Client
	Unregister chan *Client
	joins      chan subscription
	notify     chan notification
	mu         sync.RWMutex

	// publishHook, when set, fans each notification out to other instances
	// (e.g. over NATS) in addition to local delivery.
	publishHook func(userID string, payload *models.ActivityNotification)
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]string),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		joins:      make(chan subscription),
		notify:     make(chan notification, 256),
	}
}

// SetPublishHook installs a cross-instance fan-out hook invoked for every
// NotifyUser call before local delivery. Must be called before the hub
// starts serving traffic; the hook must not block.
func (h *Hub) SetPublishHook(fn func(userID string, payload *models.ActivityNotification)) {
	h.publishHook = fn
}

// NotifyUser queues an activity-updated message for every client in the
// owner's room. Delivery is best-effort and fire-and-forget: if the queue is
// full the notification is dropped and counted, never blocked on.
func (h *Hub) NotifyUser(userID string, payload *models.ActivityNotification) {
	if h.publishHook != nil {
		h.publishHook(userID, payload)
	}
	h.notifyLocal(userID, payload)
}

// notifyLocal queues a notification for clients on this instance only. The
// NATS subscriber uses it so remote events are never republished.
func (h *Hub) notifyLocal(userID string, payload *models.ActivityNotification) {
	msg := notification{
		userID:  userID,
		message: Message{Type: MessageTypeActivityUpdated, Data: payload},
	}
	select {
	case h.notify <- msg:
	default:
		metrics.NotificationsDropped.WithLabelValues("queue_full").Inc()
		logging.Warn().Str("user_id", userID).Msg("notification queue full, dropping activity update")
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// Designed for use with suture supervision: when the context is canceled all
// connected clients are closed and the method returns ctx.Err(), so the hub
// can be restarted without orphaned connections.
//
// Lifecycle events are drained before notifications, so room membership is
// consistent when a notification is delivered.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Lifecycle events first (non-blocking)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		case sub := <-h.joins:
			h.joinRoom(sub.client, sub.userID)
			continue
		default:
		}

		// Then notifications, or wait for any event
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case sub := <-h.joins:
			h.joinRoom(sub.client, sub.userID)

		case n := <-h.notify:
			h.deliver(n)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = ""
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		h.leaveRoomLocked(client, room)
		close(client.send)
	}
	total := len(h.clients)
	roomCount := len(h.rooms)
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Set(float64(total))
		metrics.WSRooms.Set(float64(roomCount))
		logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// joinRoom moves a client into a user room, leaving any previous one.
func (h *Hub) joinRoom(client *Client, userID string) {
	h.mu.Lock()
	previous, ok := h.clients[client]
	if !ok {
		// Unregistered between signal and processing; ignore.
		h.mu.Unlock()
		return
	}
	if previous == userID {
		h.mu.Unlock()
		return
	}
	h.leaveRoomLocked(client, previous)

	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[*Client]bool)
	}
	h.rooms[userID][client] = true
	h.clients[client] = userID
	roomCount := len(h.rooms)
	h.mu.Unlock()

	metrics.WSRooms.Set(float64(roomCount))
	logging.Debug().Str("user_id", userID).Msg("client joined user room")
}

// leaveRoomLocked removes a client from a room and prunes it when empty.
// Caller holds h.mu.
func (h *Hub) leaveRoomLocked(client *Client, room string) {
	if room == "" {
		return
	}
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// deliver sends a notification to every client in the target room in a
// deterministic order.
// DETERMINISM: Clients are sorted by their monotonically increasing IDs so
// delivery order is reproducible across runs; map iteration order is not.
func (h *Hub) deliver(n notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[n.userID]
	if len(members) == 0 {
		metrics.NotificationsDropped.WithLabelValues("no_subscribers").Inc()
		return
	}

	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Track clients to remove (can't modify map during iteration)
	var toRemove []*Client

	for _, client := range clients {
		select {
		case client.send <- n.message:
			metrics.NotificationsSent.Inc()
		default:
			// Send buffer full: the client is too slow, drop it.
			metrics.NotificationsDropped.WithLabelValues("slow_client").Inc()
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		room := h.clients[client]
		delete(h.clients, client)
		h.leaveRoomLocked(client, room)
		close(client.send)
	}
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is NOT logged as an error because cancellation is
// expected behavior during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients closes all connected clients during shutdown.
// DETERMINISM: Closes clients in ID order for consistent shutdown behavior.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.rooms = make(map[string]map[*Client]bool)

	metrics.WSConnections.Set(0)
	metrics.WSRooms.Set(0)
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of user rooms with at least one subscriber.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// RoomSize returns the number of clients subscribed to a user's room.
func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}
