package app_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/app"
	"github.com/JakeFAU/dojobot/internal/config"
	"github.com/JakeFAU/dojobot/internal/scheduler"
	"github.com/JakeFAU/dojobot/internal/storage"
	"github.com/JakeFAU/dojobot/internal/storage/memory"
)

func newForumServer(t *testing.T, tokenStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/access_token", func(w http.ResponseWriter, _ *http.Request) {
		if tokenStatus != http.StatusOK {
			http.Error(w, "denied", tokenStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name":"dojo-bot"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func loadConfig(t *testing.T, forumURL string) config.Config {
	t.Helper()
	body := strings.ReplaceAll(`
subreddit: Tekken
server:
  port: 0
bot:
  username: dojo-bot
  password: hunter2
reddit:
  client_id: app-id
  client_secret: app-secret
  base_url: FORUM
  token_url: FORUM/api/v1/access_token
  requests_per_second: 0
database:
  dsn: memory://
scheduler:
  run_on_start: false
archive:
  backend: memory
tasks:
  livestreams:
    enabled: false
`, "FORUM", forumURL)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildRegistersEnabledTasks(t *testing.T) {
	t.Parallel()

	srv := newForumServer(t, http.StatusOK)
	a, err := app.Build(context.Background(), loadConfig(t, srv.URL), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, []string{
		config.TaskEvents,
		config.TaskDojoLeaderboard,
		config.TaskDojoAward,
		config.TaskDojoCleaner,
		config.TaskDojoLinks,
	}, a.Jobs())
}

func TestRunTask(t *testing.T) {
	t.Parallel()

	srv := newForumServer(t, http.StatusOK)
	a, err := app.Build(context.Background(), loadConfig(t, srv.URL), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.RunTask(context.Background(), config.TaskDojoCleaner))

	// livestreams has no stream client when switched off
	err = a.RunTask(context.Background(), config.TaskLivestreams)
	require.ErrorIs(t, err, scheduler.ErrUnknownJob)

	err = a.RunTask(context.Background(), "nope")
	require.ErrorIs(t, err, scheduler.ErrUnknownJob)
}

func TestBuildFailsOnLogin(t *testing.T) {
	t.Parallel()

	srv := newForumServer(t, http.StatusUnauthorized)
	_, err := app.Build(context.Background(), loadConfig(t, srv.URL), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forum client")
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := newForumServer(t, http.StatusOK)
	a, err := app.Build(context.Background(), loadConfig(t, srv.URL), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOpenArchive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	bs, closeFn, err := app.OpenArchive(ctx, config.ArchiveConfig{})
	require.NoError(t, err)
	assert.IsType(t, storage.NoOpBlobStore{}, bs)
	assert.NoError(t, closeFn())

	bs, _, err = app.OpenArchive(ctx, config.ArchiveConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.BlobStore{}, bs)

	dir := filepath.Join(t.TempDir(), "archive")
	bs, _, err = app.OpenArchive(ctx, config.ArchiveConfig{Backend: "local", BaseDir: dir})
	require.NoError(t, err)
	_, err = bs.PutObject(ctx, "leaderboards/2024-05.json", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "leaderboards", "2024-05.json"))

	_, _, err = app.OpenArchive(ctx, config.ArchiveConfig{Backend: "s3"})
	assert.Error(t, err)
}

func TestOpenStoreMemory(t *testing.T) {
	t.Parallel()

	store, closeFn, err := app.OpenStore(context.Background(), config.DatabaseConfig{DSN: app.MemoryDSN}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, closeFn())
}

func TestSyncCalendarRequiresSettings(t *testing.T) {
	t.Parallel()

	_, err := app.SyncCalendar(context.Background(), config.Config{}, zap.NewNop())
	require.ErrorIs(t, err, config.ErrMissing)
	assert.Contains(t, err.Error(), "startgg.token")

	_, err = app.SyncCalendar(context.Background(), config.Config{
		StartGG: config.StartGGConfig{Token: "tok"},
	}, zap.NewNop())
	require.ErrorIs(t, err, config.ErrMissing)
	assert.Contains(t, err.Error(), "calendar.calendar_id")
}
