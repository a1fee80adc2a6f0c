// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

//go:build !nats

package main

import (
	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/supervisor"
	ws "github.com/roomclerk/roomclerk/internal/websocket"
)

// NATSComponents is a stub for non-NATS builds.
type NATSComponents struct{}

// InitNATS is a no-op stub for non-NATS builds.
// Returns nil to indicate NATS is not available.
func InitNATS(cfg *config.Config, _ *ws.Hub) (*NATSComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// AddNATSToSupervisor is a no-op stub for non-NATS builds.
func AddNATSToSupervisor(_ *supervisor.Tree, _ *NATSComponents) {}
