// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

// Package api provides Chi middleware factories built on the Chi ecosystem
// (go-chi/cors for CORS, go-chi/httprate for rate limiting).
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/roomclerk/roomclerk/internal/config"
)

// ChiMiddleware provides Chi-compatible middleware factories configured
// from the security section of the application config.
type ChiMiddleware struct {
	cfg  *config.SecurityConfig
	cors func(http.Handler) http.Handler
}

// NewChiMiddleware creates a middleware factory for the given security
// configuration. CORS origins default to empty, which rejects all
// cross-origin browser requests until explicitly configured.
func NewChiMiddleware(cfg *config.SecurityConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return &ChiMiddleware{
		cfg:  cfg,
		cors: corsHandler,
	}
}

// CORS returns a Chi-compatible CORS middleware using go-chi/cors.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitConfig defines rate limit parameters for a group of endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Endpoint-group rate limits. Auth endpoints are strict to slow brute
// force; health is permissive for monitoring tools.
var (
	rateLimitAuth   = RateLimitConfig{Requests: 5, Window: time.Minute}
	rateLimitLogin  = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}
	rateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimit returns the default per-IP rate limiter for API endpoints,
// using the configured requests-per-window.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	requests := m.cfg.RateLimitReqs
	if requests <= 0 {
		requests = 100
	}
	window := m.cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return m.rateLimitCustom(RateLimitConfig{Requests: requests, Window: window})
}

// RateLimitAuth returns a strict rate limiter for authentication endpoints.
func (m *ChiMiddleware) RateLimitAuth() func(http.Handler) http.Handler {
	return m.rateLimitCustom(rateLimitAuth)
}

// RateLimitLogin returns a very strict rate limiter for login attempts.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.rateLimitCustom(rateLimitLogin)
}

// RateLimitHealth returns a permissive rate limiter for health endpoints.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.rateLimitCustom(rateLimitHealth)
}

func (m *ChiMiddleware) rateLimitCustom(config RateLimitConfig) func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// APISecurityHeaders returns a middleware that adds security headers to
// API responses.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// HSTS only over HTTPS or behind a TLS-terminating proxy.
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
