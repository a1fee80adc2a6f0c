// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

// Package config holds the application configuration and its loading logic.
// Configuration is loaded with Koanf v2 from three layers, highest priority
// last: built-in defaults, an optional YAML file, environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	NATS     NATSConfig     `koanf:"nats"`
	Logging  LoggingConfig  `koanf:"logging"`
	API      APIConfig      `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds activity-store (DuckDB) settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads caps DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// SecurityConfig holds authentication and transport-security settings.
type SecurityConfig struct {
	// AuthMode selects how callers are authenticated: "jwt", "session"
	// or "none" (development only).
	AuthMode string `koanf:"auth_mode"`

	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`
	// AdminPasswordHash, when set, takes precedence over AdminPassword and
	// is compared with bcrypt.
	AdminPasswordHash string `koanf:"admin_password_hash"`

	// SessionStore selects the login-session backend for auth_mode=session:
	// "memory" or "badger".
	SessionStore     string `koanf:"session_store"`
	SessionStorePath string `koanf:"session_store_path"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// NATSConfig holds the optional cross-instance notification plane.
// Only honored by binaries built with the "nats" tag.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// APIConfig holds HTTP surface tuning.
type APIConfig struct {
	// RecentActivitiesLimit is the fixed window for GET /recent-activities.
	RecentActivitiesLimit int `koanf:"recent_activities_limit"`
}

// Validate checks the configuration for contradictions that would only
// surface later at request time.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters when auth_mode=jwt")
		}
	case "session":
		switch c.Security.SessionStore {
		case "memory", "badger":
		default:
			return fmt.Errorf("security.session_store must be memory or badger, got %q", c.Security.SessionStore)
		}
		if c.Security.SessionStore == "badger" && c.Security.SessionStorePath == "" {
			return fmt.Errorf("security.session_store_path is required for the badger session store")
		}
	case "none":
	default:
		return fmt.Errorf("security.auth_mode must be jwt, session or none, got %q", c.Security.AuthMode)
	}

	if c.Security.AuthMode != "none" && c.Security.AdminUsername == "" {
		return fmt.Errorf("security.admin_username is required when auth_mode=%s", c.Security.AuthMode)
	}
	if c.Security.AuthMode != "none" && c.Security.AdminPassword == "" && c.Security.AdminPasswordHash == "" {
		return fmt.Errorf("security.admin_password or admin_password_hash is required when auth_mode=%s", c.Security.AuthMode)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.API.RecentActivitiesLimit < 1 || c.API.RecentActivitiesLimit > 10 {
		return fmt.Errorf("api.recent_activities_limit must be between 1 and 10, got %d", c.API.RecentActivitiesLimit)
	}

	if c.NATS.Enabled && !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats is enabled without the embedded server")
	}

	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
