package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const baseYAML = `
subreddit: Tekken
bot:
  username: dojo-bot
  password: hunter2
reddit:
  client_id: app-id
  client_secret: app-secret
database:
  dsn: postgres://localhost/dojo
twitch:
  client_id: twitch-id
  client_secret: twitch-secret
  game_id: "538054672"
`

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, baseYAML+`
server:
  port: 9090
dojo:
  leaderboard_size: 3
  trailer_offset: 1
  retention_weeks: 10
  filler_phrases: ["cheers"]
tasks:
  events:
    enabled: false
  schedule-rule:
    enabled: true
    interval: 15m
archive:
  backend: gcs
  bucket: dojo-archive
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Dojo.LeaderboardSize)
	assert.Equal(t, 1, cfg.Dojo.TrailerOffset)
	assert.Equal(t, []string{"cheers"}, cfg.Dojo.FillerPhrases)
	assert.Equal(t, 10*7*24*time.Hour, cfg.RetentionHorizon())
	assert.False(t, cfg.TaskEnabled(TaskEvents))
	assert.True(t, cfg.TaskEnabled(TaskScheduleRule))
	assert.Equal(t, 15*time.Minute, cfg.Tasks[TaskScheduleRule].Interval)
	// untouched tasks keep their defaults
	assert.True(t, cfg.TaskEnabled(TaskLivestreams))
	assert.Equal(t, 5*time.Minute, cfg.Tasks[TaskLivestreams].Interval)
	assert.Equal(t, "dojo-archive", cfg.Archive.Bucket)
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "dojo_comments", cfg.Database.Table)
	assert.Equal(t, 5, cfg.Dojo.LeaderboardSize)
	assert.Equal(t, 0, cfg.Dojo.TrailerOffset)
	assert.Equal(t, 20, cfg.Dojo.RetentionWeeks)
	assert.Equal(t, "Dojo Leaderboard", cfg.Dojo.WidgetName)
	assert.Equal(t, "dojo-master", cfg.Dojo.MasterCSSClass)
	assert.Equal(t, "mokujin", cfg.Dojo.FormerCSSClass)
	assert.Equal(t, "Livestreams", cfg.Livestream.WidgetName)
	assert.Equal(t, 5, cfg.Livestream.MaxStreams)
	assert.Equal(t, "Shit Post", cfg.ScheduleRule.FlairText)
	assert.Equal(t, time.Second, cfg.Scheduler.Tick)
	assert.Equal(t, 24*time.Hour, cfg.Tasks[TaskDojoLeaderboard].Interval)
	assert.Equal(t, 168*time.Hour, cfg.Tasks[TaskDojoCleaner].Interval)
	assert.False(t, cfg.TaskEnabled(TaskScheduleRule))
	assert.Equal(t, 17, cfg.StartGG.VideogameID)
	assert.Equal(t, 20*time.Second, cfg.RedditTimeout())
	assert.Equal(t, uint32(5), cfg.Reddit.BreakerFailures)
	assert.Equal(t, time.Minute, cfg.Reddit.BreakerTimeout)
	assert.Equal(t, 120, cfg.Server.RateLimitPerMinute)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DOJOBOT_BOT_USERNAME", "env-bot")
	t.Setenv("DATABASE_URL", "postgres://env/dojo")
	t.Setenv("DOJOBOT_DOJO_LEADERBOARD_SIZE", "7")

	cfg, err := Load(writeConfig(t, `
subreddit: Tekken
bot:
  password: hunter2
reddit:
  client_id: app-id
  client_secret: app-secret
tasks:
  livestreams:
    enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, "env-bot", cfg.Bot.Username)
	assert.Equal(t, "postgres://env/dojo", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Dojo.LeaderboardSize)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		key  string
	}{
		{
			name: "no database",
			yaml: `
bot: {username: a, password: b}
reddit: {client_id: c, client_secret: d}
tasks: {livestreams: {enabled: false}}
`,
			key: "database.dsn",
		},
		{
			name: "no bot password",
			yaml: `
bot: {username: a}
reddit: {client_id: c, client_secret: d}
database: {dsn: memory://}
tasks: {livestreams: {enabled: false}}
`,
			key: "bot.password",
		},
		{
			name: "twitch required when livestreams enabled",
			yaml: `
bot: {username: a, password: b}
reddit: {client_id: c, client_secret: d}
database: {dsn: memory://}
`,
			key: "twitch.client_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissing))
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	bad := cfg
	bad.Dojo.LeaderboardSize = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Archive.Backend = "s3"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Archive = ArchiveConfig{Backend: "gcs"}
	assert.ErrorIs(t, bad.Validate(), ErrMissing)

	bad = cfg
	bad.Tasks = map[string]TaskConfig{TaskEvents: {Enabled: true}}
	assert.Error(t, bad.Validate())
}

func TestScheduleDay(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in    int
		want  int
		valid bool
	}{
		{in: 1, want: 1, valid: true},
		{in: 7, want: 7, valid: true},
		{in: 0, want: 5, valid: false},
		{in: 9, want: 5, valid: false},
	} {
		cfg := Config{ScheduleRule: ScheduleRuleConfig{Day: tt.in}}
		got, ok := cfg.ScheduleDay()
		assert.Equal(t, tt.want, got, "day %d", tt.in)
		assert.Equal(t, tt.valid, ok, "day %d", tt.in)
	}
}
