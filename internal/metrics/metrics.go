package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the authorization server
type Metrics struct {
	TokensIssuedTotal   *prometheus.CounterVec
	GrantRequestsTotal  *prometheus.CounterVec
	IntrospectionsTotal *prometheus.CounterVec
	RevocationsTotal    *prometheus.CounterVec
	AuthAttemptsTotal   *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// If enabled=true, returns Prometheus-based Metrics.
// If enabled=false, returns NoopMetrics (zero overhead).
// Uses sync.Once to ensure Prometheus metrics are only registered once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_issued_total",
				Help: "Total number of tokens issued",
			},
			[]string{"grant_type", "token_type"}, // token_type: access, refresh
		),
		GrantRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_grant_requests_total",
				Help: "Total number of grant requests by outcome",
			},
			[]string{"grant_type", "result"}, // result: success or the protocol error kind
		),
		IntrospectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_introspections_total",
				Help: "Total number of introspection requests",
			},
			[]string{"result"}, // cache_hit, active, inactive
		),
		RevocationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_revocations_total",
				Help: "Total number of revocation requests",
			},
			[]string{"result"}, // revoked, noop
		),
		AuthAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"kind", "result"}, // kind: client, user; result: success, failure
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
				},
			},
			[]string{"method", "path"},
		),
		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors",
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) RecordTokenIssued(grantType, tokenType string) {
	m.TokensIssuedTotal.WithLabelValues(grantType, tokenType).Inc()
}

func (m *Metrics) RecordGrant(grantType, result string) {
	m.GrantRequestsTotal.WithLabelValues(grantType, result).Inc()
}

func (m *Metrics) RecordIntrospection(result string) {
	m.IntrospectionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordRevocation(result string) {
	m.RevocationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordAuthAttempt(kind string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.AuthAttemptsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
