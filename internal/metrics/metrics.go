// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package metrics exposes Prometheus instrumentation for the TELEX
// service: API latency and throughput, database query performance,
// connection lifecycle, message relay outcomes, sweep results and cache
// efficiency. All collectors register through promauto at init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API endpoint metrics
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

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Connection lifecycle metrics
	ConnectionsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telex_connections_registered_total",
			Help: "Total number of TELEX connections registered",
		},
	)

	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telex_connections_rejected_total",
			Help: "Total number of rejected registration attempts",
		},
		[]string{"reason"}, // "banned_flight", "duplicate_flight"
	)

	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telex_connections_active",
			Help: "Current number of active TELEX connections",
		},
	)

	// Sweep metrics
	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telex_sweep_runs_total",
			Help: "Total number of staleness sweep ticks executed",
		},
	)

	SweepDeactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telex_sweep_deactivated_total",
			Help: "Total number of stale connections deactivated by the sweeper",
		},
	)

	SweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telex_sweep_errors_total",
			Help: "Total number of failed sweep ticks",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telex_sweep_duration_seconds",
			Help:    "Duration of sweep ticks in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Message relay metrics
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telex_messages_sent_total",
			Help: "Total number of relay messages accepted",
		},
	)

	MessagesBlocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telex_messages_blocked_total",
			Help: "Total number of shadow-blocked relay messages",
		},
	)

	MessagesProfane = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telex_messages_profane_total",
			Help: "Total number of relay messages flagged as profane",
		},
	)

	MessagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telex_messages_fetched_total",
			Help: "Total number of relay messages delivered to recipients",
		},
	)

	// Notification sink metrics
	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telex_notifications_published_total",
			Help: "Total number of notifications published per sink",
		},
		[]string{"sink"}, // "discord", "nats"
	)

	NotificationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telex_notification_errors_total",
			Help: "Total number of swallowed notification publish errors",
		},
		[]string{"sink"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// System metrics
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

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSweep records the outcome of one sweep tick.
func RecordSweep(duration time.Duration, deactivated int64, err error) {
	SweepRuns.Inc()
	SweepDuration.Observe(duration.Seconds())
	if err != nil {
		SweepErrors.Inc()
		return
	}
	SweepDeactivated.Add(float64(deactivated))
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
