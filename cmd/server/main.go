// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

// Package main is the entry point for the Roomclerk server application.
//
// Roomclerk records meeting activity for a video-meeting web app and pushes
// live activity updates to each owner's dashboard. Meetings reach it two
// ways: an HTTP snapshot (POST /api/v1/meeting-activity) and a WebSocket
// signal stream whose per-connection session tracker counts participants and
// finalizes a record when the meeting ends.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB as the append-only activity store
//  3. WebSocket Hub: Per-user rooms for real-time activity-updated pushes
//  4. Authentication: Configure JWT, server-side sessions, or no-auth mode
//  5. NATS (optional): Cross-instance notification fan-out
//  6. HTTP Server: REST API, WebSocket endpoint, and Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (SECTION_KEY form, e.g. SECURITY_JWT_SECRET)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// For JWT authentication (default):
//   - SECURITY_JWT_SECRET: 32+ character secret for token signing
//   - SECURITY_ADMIN_USERNAME: Admin username
//   - SECURITY_ADMIN_PASSWORD: Admin password
//
// # Build Tags
//
// Optional build tags enable additional functionality:
//
//	go build -tags "nats" ./cmd/server  # Enable NATS cross-instance fan-out
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes WebSocket clients and the database connection
//   - Shuts down NATS components if enabled
//
// # Example Usage
//
// Development with no authentication:
//
//	export SECURITY_AUTH_MODE=none
//	./roomclerk
//
// Production with JWT:
//
//	export SECURITY_JWT_SECRET=$(openssl rand -base64 32)
//	export SECURITY_ADMIN_USERNAME=admin
//	export SECURITY_ADMIN_PASSWORD=secure-password
//	./roomclerk
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/roomclerk/roomclerk/internal/api"
	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/config"
	"github.com/roomclerk/roomclerk/internal/database"
	"github.com/roomclerk/roomclerk/internal/logging"
	"github.com/roomclerk/roomclerk/internal/metrics"
	"github.com/roomclerk/roomclerk/internal/supervisor"
	"github.com/roomclerk/roomclerk/internal/supervisor/services"
	ws "github.com/roomclerk/roomclerk/internal/websocket"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", version).Msg("Starting Roomclerk with supervisor tree")

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Configuration loaded")

	// Initialize the activity store
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree := supervisor.NewTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})

	// WebSocket hub for real-time activity updates
	wsHub := ws.NewHub()

	var jwtManager *auth.JWTManager
	var sessionStore auth.SessionStore

	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Msg("JWT authentication enabled")
	case "session":
		store, cleanup, err := auth.NewSessionStore(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize session store")
		}
		sessionStore = store
		defer func() {
			if err := cleanup(); err != nil {
				logging.Error().Err(err).Msg("Error closing session store")
			}
		}()
		logging.Info().Str("store", cfg.Security.SessionStore).Msg("Session authentication enabled")
		if cfg.Security.SessionStore == "memory" {
			logging.Warn().Msg("Session store is 'memory': sessions are lost on restart. Use SECURITY_SESSION_STORE=badger for persistence.")
		}
	case "none":
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (SECURITY_AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All endpoints are publicly accessible without authentication!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use SECURITY_AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
	}

	authMw, err := auth.NewMiddleware(&cfg.Security, jwtManager, sessionStore)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize auth middleware")
	}
	verifier := auth.NewCredentialVerifier(&cfg.Security)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (SECURITY_RATE_LIMIT_DISABLED=true)")
		logging.Warn().Msg("This should only be used for local development and tests!")
	}

	// Warn about wildcard CORS when authentication is enabled: cookies plus
	// a wildcard origin lets any website drive the API as the victim.
	if cfg.Security.AuthMode != "none" {
		for _, origin := range cfg.Security.CORSOrigins {
			if origin == "*" {
				logging.Warn().Msg("CORS is configured with wildcard origin (SECURITY_CORS_ORIGINS=*) while authentication is enabled")
				logging.Warn().Msg("Set specific origins in production, e.g. SECURITY_CORS_ORIGINS=https://meet.example.com")
			}
		}
	}

	handler := api.NewHandler(db, cfg, wsHub, authMw, verifier, jwtManager)

	// Initialize NATS cross-instance fan-out (optional - requires build with -tags nats)
	natsComponents, err := InitNATS(cfg, wsHub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}
	AddNATSToSupervisor(tree, natsComponents)

	router := api.NewRouter(handler, authMw, api.NewChiMiddleware(&cfg.Security))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.AppUptime.Set(time.Since(startTime).Seconds())
			}
		}
	}()

	// Messaging layer services
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	logging.Info().Msg("WebSocket hub added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
