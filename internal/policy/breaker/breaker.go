// Package breaker trips a per-host circuit when an upstream API keeps failing,
// so a dead upstream fails fast instead of eating every task's timeout.
package breaker

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/metrics"
)

// Defaults applied when Config leaves a field unset.
const (
	DefaultFailures = 5
	DefaultTimeout  = time.Minute
)

// Config controls when a host's circuit opens and how long it stays open.
type Config struct {
	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32
	// Timeout is how long an open circuit rejects calls before probing.
	Timeout time.Duration
}

// errServerStatus marks a 5xx response so the breaker counts it.
var errServerStatus = errors.New("upstream server error")

// Breakers holds one circuit breaker per upstream host.
type Breakers struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[*http.Response]
	cfg      Config
	logger   *zap.Logger
}

// New builds an empty set of breakers.
func New(cfg Config, logger *zap.Logger) *Breakers {
	if cfg.Failures == 0 {
		cfg.Failures = DefaultFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breakers{
		breakers: make(map[string]*gobreaker.CircuitBreaker[*http.Response]),
		cfg:      cfg,
		logger:   logger.Named("breaker"),
	}
}

func (b *Breakers) get(host string) *gobreaker.CircuitBreaker[*http.Response] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[host]; ok {
		return cb
	}
	failures := b.cfg.Failures
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     b.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit state changed",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, int(to))
		},
	})
	b.breakers[host] = cb
	metrics.SetBreakerState(host, int(gobreaker.StateClosed))
	return cb
}

// State reports the circuit state for host. Unknown hosts are closed.
func (b *Breakers) State(host string) gobreaker.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[host]; ok {
		return cb.State()
	}
	return gobreaker.StateClosed
}

// Transport is an http.RoundTripper that routes each request through its
// host's breaker. Transport errors and 5xx responses count as failures; the
// 5xx response itself is still returned to the caller.
type Transport struct {
	Base     http.RoundTripper
	Breakers *Breakers
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Breakers == nil {
		return base.RoundTrip(req) //nolint:wrapcheck // RoundTripper errors pass through untouched
	}
	host := req.URL.Hostname()
	resp, err := t.Breakers.get(host).Execute(func() (*http.Response, error) {
		resp, err := base.RoundTrip(req)
		if err != nil {
			return nil, err //nolint:wrapcheck // RoundTripper errors pass through untouched
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%s: %w", host, err)
	default:
		return nil, err
	}
}
