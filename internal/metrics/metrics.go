// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Activity store writes (DuckDB)
// - API endpoint latency and throughput
// - WebSocket connections, rooms, and meeting sessions
// - Real-time notification delivery
// - NATS fan-out (when enabled)

var (
	// Activity Store Metrics
	ActivitiesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activities_recorded_total",
			Help: "Total number of activity records appended to the store",
		},
		[]string{"source", "status"}, // source: "http", "tracker"
	)

	ActivityWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_write_errors_total",
			Help: "Total number of failed activity writes",
		},
		[]string{"source", "error_type"}, // error_type: "validation", "database"
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_rooms",
			Help: "Current number of user rooms with at least one subscriber",
		},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket signals received",
		},
		[]string{"signal"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Meeting Session Metrics
	MeetingSessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meeting_sessions_started_total",
			Help: "Total number of meeting sessions started",
		},
	)

	MeetingSessionsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_sessions_finalized_total",
			Help: "Total number of meeting sessions finalized",
		},
		[]string{"reason"}, // "ended", "disconnect"
	)

	MeetingSessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meeting_session_duration_minutes",
			Help:    "Recorded meeting durations in minutes",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 240, 480},
		},
	)

	MeetingSessionPeakParticipants = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meeting_session_peak_participants",
			Help:    "Peak participant counts observed per meeting session",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	// Notification Metrics
	NotificationsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of activity notifications delivered to subscribers",
		},
	)

	NotificationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Total number of activity notifications dropped",
		},
		[]string{"reason"}, // "no_subscribers", "slow_client"
	)

	// NATS Fan-out Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of NATS messages that failed to parse",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordActivity records a successful activity append.
func RecordActivity(source, status string) {
	ActivitiesRecorded.WithLabelValues(source, status).Inc()
}

// RecordActivityWriteError records a failed activity append.
func RecordActivityWriteError(source, errorType string) {
	ActivityWriteErrors.WithLabelValues(source, errorType).Inc()
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSessionFinalized records a finalized meeting session.
func RecordSessionFinalized(reason string, durationMinutes, peakParticipants int) {
	MeetingSessionsFinalized.WithLabelValues(reason).Inc()
	MeetingSessionDuration.Observe(float64(durationMinutes))
	MeetingSessionPeakParticipants.Observe(float64(peakParticipants))
}
