// Package metrics provides Prometheus collectors for the identity stub.
//
// Metrics are registered globally on import and exposed through the stub's
// /metrics endpoint. Use the exported helpers to record values:
//
//	metrics.RecordAuthSuccess("password")
//	metrics.RecordAuthFailure("password", "invalid_credentials")
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "datacendia"
	subsystem = "auth"
)

var (
	// AuthAttemptsTotal counts authentication attempts by method and result.
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "attempts_total",
			Help:      "Total number of authentication attempts by method and result",
		},
		[]string{"method", "result"}, // method: password, register; result: success, failure
	)

	// AuthFailuresTotal counts authentication failures by method and reason.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Total number of authentication failures by method and reason",
		},
		[]string{"method", "reason"}, // reason: invalid_credentials, email_taken, invalid_token, etc.
	)

	// SessionsIssuedTotal counts access tokens issued.
	SessionsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_issued_total",
			Help:      "Total number of sessions issued",
		},
	)

	// SessionsRevokedTotal counts sessions revoked by logout.
	SessionsRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_revoked_total",
			Help:      "Total number of sessions revoked",
		},
	)

	// IdentityLookupsTotal counts identity resolutions by result.
	IdentityLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "identity_lookups_total",
			Help:      "Total number of current-user lookups by result",
		},
		[]string{"result"}, // result: success, unauthenticated
	)

	// RequestDurationSeconds measures HTTP handler latency.
	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "status"},
	)
)

// RecordAuthSuccess records a successful authentication attempt.
func RecordAuthSuccess(method string) {
	AuthAttemptsTotal.WithLabelValues(method, "success").Inc()
	SessionsIssuedTotal.Inc()
}

// RecordAuthFailure records a failed authentication attempt.
func RecordAuthFailure(method, reason string) {
	AuthAttemptsTotal.WithLabelValues(method, "failure").Inc()
	AuthFailuresTotal.WithLabelValues(method, reason).Inc()
}

// RecordSessionRevoked records a logout.
func RecordSessionRevoked() {
	SessionsRevokedTotal.Inc()
}

// RecordIdentityLookup records a current-user resolution.
func RecordIdentityLookup(result string) {
	IdentityLookupsTotal.WithLabelValues(result).Inc()
}
