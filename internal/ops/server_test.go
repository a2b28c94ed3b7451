package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(nil, Options{}, zap.NewNop()), "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pinger Pinger
		code   int
	}{
		{name: "no dependency", pinger: nil, code: http.StatusOK},
		{name: "store reachable", pinger: fakePinger{}, code: http.StatusOK},
		{name: "store down", pinger: fakePinger{err: errors.New("conn refused")}, code: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, NewServer(tt.pinger, Options{}, zap.NewNop()), "/readyz")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, Options{}, zap.NewNop())
	serve(t, s, "/healthz")
	rec := serve(t, s, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dojobot_http_requests_total")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewServer(nil, Options{}, zap.NewNop()).ListenAndServe(ctx, "127.0.0.1:0")
	}()
	cancel()
	require.NoError(t, <-done)
}

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, Options{RateLimitPerMinute: 2}, zap.NewNop())
	assert.Equal(t, http.StatusOK, serve(t, s, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(t, s, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, s, "/healthz").Code)
}
