// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

//go:build nats

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/metrics"
	"github.com/roomclerk/roomclerk/internal/models"
	"github.com/roomclerk/roomclerk/internal/supervisor"
	ws "github.com/roomclerk/roomclerk/internal/websocket"
)

// NATSComponents holds all NATS-related components for lifecycle management.
type NATSComponents struct {
	server     *natsserver.Server
	natsConn   *natsgo.Conn
	subscriber *ws.NATSSubscriber
}

// InitNATS wires cross-instance activity fan-out when NATS is enabled.
//
// The hub gets a publish hook so every NotifyUser call is also published to
// "activity.updated.<owner-id>"; a subscriber on the wildcard delivers remote
// events to this instance's rooms. The connection uses NoEcho so an instance
// never re-receives its own publishes - local delivery stays in-process.
//
// Returns nil components when NATS is disabled.
func InitNATS(cfg *config.Config, wsHub *ws.Hub) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS fan-out disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	logging.Info().Msg("Initializing NATS activity fan-out...")

	components := &NATSComponents{}

	var natsURL string
	if cfg.NATS.EmbeddedServer {
		srv, err := startEmbeddedServer(cfg.NATS.StoreDir)
		if err != nil {
			return nil, err
		}
		components.server = srv
		natsURL = srv.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		natsURL = cfg.NATS.URL
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	nc, err := natsgo.Connect(natsURL,
		natsgo.Name("roomclerk"),
		natsgo.NoEcho(),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.shutdownServer()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.natsConn = nc

	wsHub.SetPublishHook(func(userID string, payload *models.ActivityNotification) {
		data, err := json.Marshal(ws.ActivityEnvelope{UserID: userID, Activity: payload})
		if err != nil {
			logging.Error().Err(err).Msg("Failed to marshal activity envelope")
			return
		}
		if err := nc.Publish(ws.ActivitySubjectPrefix+userID, data); err != nil {
			logging.Warn().Err(err).Msg("Failed to publish activity event")
			return
		}
		metrics.NATSMessagesPublished.Inc()
	})

	components.subscriber = ws.NewNATSSubscriber(wsHub, &connMessageHandler{conn: nc})

	logging.Info().Msg("NATS activity fan-out initialized")
	return components, nil
}

// AddNATSToSupervisor places the NATS subscriber under the messaging layer
// and ties connection/server teardown to its shutdown.
func AddNATSToSupervisor(tree *supervisor.Tree, components *NATSComponents) {
	if components == nil {
		return
	}
	tree.AddMessagingService(&natsFanoutService{components: components})
	logging.Info().Msg("NATS subscriber added to supervisor tree")
}

// startEmbeddedServer runs a core NATS server in-process. JetStream is left
// off: activity fan-out is fire-and-forget, clients resync over HTTP.
func startEmbeddedServer(storeDir string) (*natsserver.Server, error) {
	opts := &natsserver.Options{
		ServerName: "roomclerk-events",
		Host:       "127.0.0.1",
		Port:       4222,
		StoreDir:   storeDir,
	}

	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	srv.ConfigureLogger()

	go srv.Start()
	if !srv.ReadyForConnections(30 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}
	return srv, nil
}

func (c *NATSComponents) shutdownServer() {
	if c.server != nil {
		c.server.Shutdown()
		c.server.WaitForShutdown()
	}
}

// connMessageHandler adapts a NATS connection to the subscriber's message
// source interface.
type connMessageHandler struct {
	conn *natsgo.Conn
}

// Subscribe subscribes to a subject and forwards message payloads until the
// context is canceled.
func (h *connMessageHandler) Subscribe(ctx context.Context, subject string) (<-chan []byte, error) {
	msgCh := make(chan *natsgo.Msg, 256)
	sub, err := h.conn.ChanSubscribe(subject, msgCh)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	out := make(chan []byte, 256)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Unsubscribe(); err != nil {
				logging.Debug().Err(err).Msg("NATS unsubscribe failed")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				out <- msg.Data
			}
		}
	}()
	return out, nil
}

// Close drains the connection so queued publishes flush before teardown.
func (h *connMessageHandler) Close() error {
	return h.conn.Drain()
}

// natsFanoutService runs the NATS subscriber under suture supervision. When
// its context is canceled it also drains the connection and stops the
// embedded server, so the whole fan-out plane follows the messaging layer's
// lifecycle.
type natsFanoutService struct {
	components *NATSComponents
}

// Serve implements suture.Service.
func (s *natsFanoutService) Serve(ctx context.Context) error {
	if err := s.components.subscriber.Start(ctx); err != nil {
		return fmt.Errorf("start NATS subscriber: %w", err)
	}

	<-ctx.Done()

	s.components.subscriber.Stop()
	if err := s.components.natsConn.Drain(); err != nil {
		logging.Warn().Err(err).Msg("Error draining NATS connection")
	}
	s.components.shutdownServer()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *natsFanoutService) String() string {
	return "nats-fanout"
}
