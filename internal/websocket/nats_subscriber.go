// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

//go:build nats

package websocket

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/metrics"
	"github.com/roomclerk/roomclerk/internal/models"
)

// ActivitySubjectPrefix is the NATS subject prefix for activity fan-out.
// Messages are published to "activity.updated.<owner-id>".
const ActivitySubjectPrefix = "activity.updated."

// ActivityEnvelope is the wire format for cross-instance activity fan-out.
// The owner rides in the payload so delivery does not depend on parsing the
// subject.
type ActivityEnvelope struct {
	UserID   string                       `json:"user_id"`
	Activity *models.ActivityNotification `json:"activity"`
}

// NATSMessageHandler defines the interface for receiving NATS messages.
// This allows the WebSocket subscriber to work with any message source.
type NATSMessageHandler interface {
	// Subscribe subscribes to a subject and returns a channel of messages.
	Subscribe(ctx context.Context, subject string) (<-chan []byte, error)
	// Close releases resources.
	Close() error
}

// NATSSubscriber bridges NATS activity events to the local hub. Each
// instance subscribes to the activity wildcard so notifications written on
// one instance reach clients connected to another.
type NATSSubscriber struct {
	hub     *Hub
	handler NATSMessageHandler
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewNATSSubscriber creates a new NATS to WebSocket bridge.
func NewNATSSubscriber(hub *Hub, handler NATSMessageHandler) *NATSSubscriber {
	return &NATSSubscriber{
		hub:     hub,
		handler: handler,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins listening for activity events and forwarding them to the hub.
func (s *NATSSubscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	messages, err := s.handler.Subscribe(ctx, ActivitySubjectPrefix+">")
	if err != nil {
		return err
	}

	go s.processMessages(ctx, messages)

	logging.Info().Msg("NATS to WebSocket subscriber started")
	return nil
}

// Stop stops the subscriber.
func (s *NATSSubscriber) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	logging.Info().Msg("NATS to WebSocket subscriber stopped")
}

// processMessages handles incoming NATS messages.
func (s *NATSSubscriber) processMessages(ctx context.Context, messages <-chan []byte) {
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case data, ok := <-messages:
			if !ok {
				return
			}
			s.handleMessage(data)
		}
	}
}

// handleMessage delivers a single NATS activity event to the local hub.
func (s *NATSSubscriber) handleMessage(data []byte) {
	metrics.NATSMessagesConsumed.Inc()

	var envelope ActivityEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		metrics.NATSMessagesParseFailed.Inc()
		logging.Warn().Err(err).Msg("failed to unmarshal NATS activity event")
		return
	}
	if envelope.UserID == "" || envelope.Activity == nil {
		metrics.NATSMessagesParseFailed.Inc()
		logging.Warn().Msg("dropping NATS activity event with missing owner or payload")
		return
	}

	s.hub.notifyLocal(envelope.UserID, envelope.Activity)
}
