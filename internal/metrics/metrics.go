// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flixpilot_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flixpilot_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Emby upstream

	EmbyRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flixpilot_emby_request_duration_seconds",
			Help:    "Duration of calls to the Emby REST API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flixpilot_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flixpilot_circuit_breaker_consecutive_failures",
			Help: "Consecutive failures seen by the circuit breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Session monitor and device sweep

	MonitorPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_monitor_passes_total",
			Help: "Session monitor passes by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	MonitorSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flixpilot_monitor_sessions",
			Help: "Sessions seen in the last monitor pass",
		},
	)

	MonitorPlaying = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flixpilot_monitor_playing_sessions",
			Help: "Sessions with an active item in the last monitor pass",
		},
	)

	SessionsKicked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_sessions_kicked_total",
			Help: "Sessions kicked for violating client rules",
		},
		[]string{"list"}, // blacklist, whitelist
	)

	KickStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_kick_step_failures_total",
			Help: "Failed kick side effects by step",
		},
		[]string{"step"},
	)

	DevicesSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_devices_swept_total",
			Help: "Emby devices handled by device sweeps",
		},
		[]string{"result"}, // deleted, failed
	)

	// Device registry

	DevicesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_devices_recorded_total",
			Help: "Device heartbeats by outcome",
		},
		[]string{"outcome"}, // recorded, blocked_client, limit_reached
	)

	// Duplicate scanner

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flixpilot_duplicate_scan_duration_seconds",
			Help:    "Duration of duplicate scans",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	ScanDuplicateGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flixpilot_duplicate_groups",
			Help: "Duplicate groups found by the most recent scan",
		},
	)

	ItemsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flixpilot_items_deleted_total",
			Help: "Emby item deletions requested through the scanner",
		},
		[]string{"result"}, // success, failure
	)

	// Websocket

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flixpilot_websocket_connections",
			Help: "Connected live-event websocket clients",
		},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEmbyRequest records one upstream call. status is 0 for transport
// failures and breaker rejections.
func RecordEmbyRequest(method, endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	EmbyRequestDuration.WithLabelValues(method, endpoint, label).Observe(duration.Seconds())
}

// RecordMonitorPass records a completed monitor pass.
func RecordMonitorPass(sessions, playing int, err error) {
	if err != nil {
		MonitorPasses.WithLabelValues("error").Inc()
		return
	}
	MonitorPasses.WithLabelValues("ok").Inc()
	MonitorSessions.Set(float64(sessions))
	MonitorPlaying.Set(float64(playing))
}

// RecordScan records a finished duplicate scan.
func RecordScan(mode string, duration time.Duration, groups int) {
	ScanDuration.WithLabelValues(mode).Observe(duration.Seconds())
	ScanDuplicateGroups.Set(float64(groups))
}
