// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Task outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Reconciliation outcome labels.
const (
	OutcomeKept    = "kept"
	OutcomeDeleted = "deleted"
	OutcomeFailed  = "failed"
)

var (
	taskRunsTotal              *prometheus.CounterVec
	taskDurationSeconds        *prometheus.HistogramVec
	commentsIngestedTotal      prometheus.Counter
	commentsPrunedTotal        prometheus.Counter
	commentsReconciledTotal    *prometheus.CounterVec
	upstreamRequestsTotal      *prometheus.CounterVec
	rateLimitDelaySeconds      *prometheus.HistogramVec
	breakerState               *prometheus.GaugeVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		taskRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dojobot_task_runs_total",
				Help: "Total number of scheduled task invocations, labeled by task and status.",
			},
			[]string{"task", "status"},
		)

		taskDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dojobot_task_duration_seconds",
				Help:    "Histogram of task run durations.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"task"},
		)

		commentsIngestedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dojobot_comments_ingested_total",
				Help: "Total number of new comment records stored.",
			},
		)

		commentsPrunedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dojobot_comments_pruned_total",
				Help: "Total number of comment records removed by retention.",
			},
		)

		commentsReconciledTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dojobot_comments_reconciled_total",
				Help: "Total number of records checked against upstream, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dojobot_upstream_requests_total",
				Help: "Total number of outbound API requests, labeled by host and code.",
			},
			[]string{"host", "code"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dojobot_rate_limit_delay_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)

		breakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dojobot_circuit_breaker_state",
				Help: "Circuit breaker state per upstream host (0 closed, 1 half-open, 2 open).",
			},
			[]string{"host"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dojobot_http_requests_total",
				Help: "Total number of ops HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dojobot_http_request_duration_seconds",
				Help:    "Histogram of ops HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTask records one task invocation.
func ObserveTask(task string, err error, duration time.Duration) {
	Init()
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	taskRunsTotal.WithLabelValues(task, status).Inc()
	taskDurationSeconds.WithLabelValues(task).Observe(duration.Seconds())
}

// AddIngested counts newly stored comment records.
func AddIngested(n int) {
	Init()
	if n > 0 {
		commentsIngestedTotal.Add(float64(n))
	}
}

// AddPruned counts records removed by retention.
func AddPruned(n int64) {
	Init()
	if n > 0 {
		commentsPrunedTotal.Add(float64(n))
	}
}

// ObserveReconciled counts a reconciliation outcome.
func ObserveReconciled(outcome string) {
	Init()
	commentsReconciledTotal.WithLabelValues(outcome).Inc()
}

// ObserveUpstream counts an outbound API request. A zero code means the
// request failed before a response arrived.
func ObserveUpstream(host string, code int) {
	Init()
	label := strconv.Itoa(code)
	if code == 0 {
		label = "error"
	}
	upstreamRequestsTotal.WithLabelValues(host, label).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// SetBreakerState records a circuit breaker transition for host.
func SetBreakerState(host string, state int) {
	Init()
	breakerState.WithLabelValues(host).Set(float64(state))
}

// ObserveHTTPRequest increments the ops HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
