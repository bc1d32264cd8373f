// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-companion-auth.
//
// go-companion-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for the companion
// auth service. It exposes request metrics, authentication flow counters,
// and store gauges to enable monitoring of server health.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all companion auth metrics
	Namespace = "companionauth"

	// Label names
	LabelFlow       = "flow"
	LabelStatus     = "status"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"

	// Status values
	StatusSuccess = "success"
	StatusFailure = "failure"

	// Flow names
	FlowRegister   = "register"
	FlowLogin      = "login"
	FlowChildLogin = "child_login"
	FlowRefresh    = "refresh"
)

var (
	// AuthAttemptsTotal tracks authentication attempts by flow and outcome.
	// Use RecordAuthAttempt to increment this counter.
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "attempts_total",
			Help:      "Total number of authentication attempts by flow and status",
		},
		[]string{LabelFlow, LabelStatus},
	)

	// RefreshRotationsTotal tracks successful refresh token rotations.
	RefreshRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "refresh_rotations_total",
			Help:      "Total number of successful refresh token rotations",
		},
	)

	// TokensSweptTotal tracks expired refresh tokens removed by the sweeper.
	TokensSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tokens_swept_total",
			Help:      "Total number of expired refresh tokens removed by the sweeper",
		},
	)

	// ChallengesOutstanding tracks the number of pending WebAuthn challenges.
	ChallengesOutstanding = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "challenges_outstanding",
			Help:      "Number of pending WebAuthn challenges",
		},
	)

	// RefreshTokensStored tracks the number of refresh tokens currently stored.
	RefreshTokensStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "refresh_tokens_stored",
			Help:      "Number of refresh tokens currently stored",
		},
	)

	// HTTPRequestsTotal tracks the total number of HTTP requests by method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelStatusCode},
	)

	// HTTPRequestDuration tracks the duration of HTTP requests in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod},
	)

	// ActiveConnections tracks the number of in-flight HTTP requests.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_connections",
			Help:      "Number of in-flight HTTP requests",
		},
	)

	// Goroutines tracks the current number of goroutines.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes tracks currently allocated heap memory in bytes.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Currently allocated heap memory in bytes",
		},
	)

	// MemorySysBytes tracks memory obtained from the OS in bytes.
	MemorySysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_sys_bytes",
			Help:      "Memory obtained from the OS in bytes",
		},
	)

	// GCPauseTotalSeconds tracks cumulative GC pause time in seconds.
	GCPauseTotalSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gc_pause_total_seconds",
			Help:      "Cumulative GC pause time in seconds",
		},
	)

	// ServerUptime tracks server uptime in seconds.
	ServerUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "uptime_seconds",
			Help:      "Server uptime in seconds",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordAuthAttempt records an authentication attempt outcome.
//
// Parameters:
//   - flow: The authentication flow (use Flow* constants)
//   - status: The outcome (use Status* constants)
func RecordAuthAttempt(flow, status string) {
	if !enabled.Load() {
		return
	}
	AuthAttemptsTotal.WithLabelValues(flow, status).Inc()
}

// RecordRefreshRotation records a successful refresh token rotation.
func RecordRefreshRotation() {
	if !enabled.Load() {
		return
	}
	RefreshRotationsTotal.Inc()
}

// RecordTokensSwept records refresh tokens removed by the expiry sweeper.
func RecordTokensSwept(count int) {
	if !enabled.Load() {
		return
	}
	TokensSweptTotal.Add(float64(count))
}

// SetChallengesOutstanding sets the pending challenge gauge.
func SetChallengesOutstanding(count int) {
	if !enabled.Load() {
		return
	}
	ChallengesOutstanding.Set(float64(count))
}

// SetRefreshTokensStored sets the stored refresh token gauge.
func SetRefreshTokensStored(count int) {
	if !enabled.Load() {
		return
	}
	RefreshTokensStored.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request with its duration and status.
//
// Parameters:
//   - method: The HTTP method (GET, POST, etc.)
//   - statusCode: The HTTP status code as a string
//   - duration: The request duration in seconds
func RecordHTTPRequest(method, statusCode string, duration float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration)
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
