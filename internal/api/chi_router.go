// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomclerk/roomclerk/internal/auth"
	"github.com/roomclerk/roomclerk/internal/middleware"
)

// Router wires handlers, authentication and the Chi middleware stack.
type Router struct {
	handler       *Handler
	authMw        *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given handler and middleware.
func NewRouter(handler *Handler, authMw *auth.Middleware, chiMw *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		authMw:        authMw,
		chiMiddleware: chiMw,
	}
}

// SetupChi configures all HTTP routes using the Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS must be
	// global to handle OPTIONS preflight.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health endpoints: permissive rate limiting, no authentication.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Authentication endpoints: strict rate limiting against brute force.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(APISecurityHeaders())

		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
		r.Post("/logout", router.handler.Logout)
	})

	// Core API endpoints: all require authentication.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authMw.Authenticate)

		r.Post("/meeting-activity", router.handler.MeetingActivity)
		r.Get("/recent-activities", router.handler.RecentActivities)
		r.Get("/activity-stats", router.handler.ActivityStats)
	})

	// The WebSocket endpoint authenticates during the handshake instead of
	// via middleware: the 101 upgrade cannot share the JSON 401 path.
	r.With(router.chiMiddleware.RateLimit()).Get("/api/v1/ws", router.handler.WebSocket)

	// Observability
	r.Handle("/metrics", promhttp.Handler())

	return r
}
