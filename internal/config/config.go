// Package config loads and validates bot configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissing marks a required setting that was not provided.
var ErrMissing = errors.New("required setting missing")

// Task names understood by the scheduler.
const (
	TaskDojoLeaderboard = "dojo-leaderboard"
	TaskDojoAward       = "dojo-award"
	TaskDojoCleaner     = "dojo-cleaner"
	TaskDojoLinks       = "dojo-links"
	TaskLivestreams     = "livestreams"
	TaskEvents          = "events"
	TaskScheduleRule    = "schedule-rule"
)

// TaskNames lists every task in scheduling order.
var TaskNames = []string{
	TaskLivestreams,
	TaskEvents,
	TaskScheduleRule,
	TaskDojoLeaderboard,
	TaskDojoAward,
	TaskDojoCleaner,
	TaskDojoLinks,
}

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Subreddit    string                `mapstructure:"subreddit"`
	Server       ServerConfig          `mapstructure:"server"`
	Logging      LoggingConfig         `mapstructure:"logging"`
	Bot          BotConfig             `mapstructure:"bot"`
	Reddit       RedditConfig          `mapstructure:"reddit"`
	Database     DatabaseConfig        `mapstructure:"database"`
	Dojo         DojoConfig            `mapstructure:"dojo"`
	Livestream   LivestreamConfig      `mapstructure:"livestream"`
	Twitch       TwitchConfig          `mapstructure:"twitch"`
	Events       EventsConfig          `mapstructure:"events"`
	Sidebar      SidebarConfig         `mapstructure:"sidebar"`
	ScheduleRule ScheduleRuleConfig    `mapstructure:"schedule_rule"`
	Scheduler    SchedulerConfig       `mapstructure:"scheduler"`
	Tasks        map[string]TaskConfig `mapstructure:"tasks"`
	Archive      ArchiveConfig         `mapstructure:"archive"`
	StartGG      StartGGConfig         `mapstructure:"startgg"`
	Calendar     CalendarConfig        `mapstructure:"calendar"`
}

// ServerConfig controls the ops HTTP server. Port 0 disables it.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// RateLimitPerMinute caps requests per client IP. 0 disables the limit.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// BotConfig holds the bot account credentials.
type BotConfig struct {
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	UserAgent string `mapstructure:"user_agent"`
}

// RedditConfig holds the forum API application credentials and endpoints.
type RedditConfig struct {
	ClientID          string  `mapstructure:"client_id"`
	ClientSecret      string  `mapstructure:"client_secret"`
	BaseURL           string  `mapstructure:"base_url"`
	TokenURL          string  `mapstructure:"token_url"`
	PermalinkBase     string  `mapstructure:"permalink_base"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	// BreakerFailures consecutive upstream failures open a host's circuit
	// for BreakerTimeout.
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// DatabaseConfig controls access to the comment store.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DojoConfig drives the leaderboard workflows.
type DojoConfig struct {
	LeaderboardSize    int      `mapstructure:"leaderboard_size"`
	TrailerOffset      int      `mapstructure:"trailer_offset"`
	RetentionWeeks     int      `mapstructure:"retention_weeks"`
	MaxFeedItems       int      `mapstructure:"max_feed_items"`
	MaxAncestorDepth   int      `mapstructure:"max_ancestor_depth"`
	FillerPhrases      []string `mapstructure:"filler_phrases"`
	WidgetName         string   `mapstructure:"widget_name"`
	WikiPrefix         string   `mapstructure:"wiki_prefix"`
	MasterFlairID      string   `mapstructure:"master_flair_template_id"`
	MasterCSSClass     string   `mapstructure:"master_css_class"`
	FormerCSSClass     string   `mapstructure:"former_css_class"`
	LinkText           string   `mapstructure:"link_text"`
	UsefulWidgetName   string   `mapstructure:"useful_widget_name"`
	ImageWidgetName    string   `mapstructure:"image_widget_name"`
	MenuLinkText       string   `mapstructure:"menu_link_text"`
	WikiLinksPerLeader int      `mapstructure:"wiki_links_per_leader"`
}

// LivestreamConfig shapes the livestream widget.
type LivestreamConfig struct {
	WidgetName      string `mapstructure:"widget_name"`
	MaxStreams      int    `mapstructure:"max_streams"`
	MaxStatusLength int    `mapstructure:"max_status_length"`
}

// TwitchConfig holds the stream provider credentials.
type TwitchConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	GameID       string `mapstructure:"game_id"`
	BaseURL      string `mapstructure:"base_url"`
	TokenURL     string `mapstructure:"token_url"`
}

// EventsConfig names the calendar widget mirrored into the old sidebar.
type EventsConfig struct {
	WidgetName string `mapstructure:"widget_name"`
}

// SidebarConfig points at the old-style sidebar wiki page.
type SidebarConfig struct {
	WikiPage string `mapstructure:"wiki_page"`
}

// ScheduleRuleConfig restricts a post flair to one weekday.
type ScheduleRuleConfig struct {
	FlairText          string `mapstructure:"flair_text"`
	Day                int    `mapstructure:"day"`
	RemovalReasonTitle string `mapstructure:"removal_reason_title"`
	MaxFeedItems       int    `mapstructure:"max_feed_items"`
}

// SchedulerConfig controls the polling loop.
type SchedulerConfig struct {
	Tick       time.Duration `mapstructure:"tick"`
	RunOnStart bool          `mapstructure:"run_on_start"`
}

// TaskConfig toggles and paces a scheduled task.
type TaskConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// ArchiveConfig selects where final monthly standings are archived.
type ArchiveConfig struct {
	Backend string `mapstructure:"backend"`
	Bucket  string `mapstructure:"bucket"`
	BaseDir string `mapstructure:"base_dir"`
	Prefix  string `mapstructure:"prefix"`
}

// StartGGConfig holds tournament provider settings.
type StartGGConfig struct {
	URL         string `mapstructure:"url"`
	Token       string `mapstructure:"token"`
	VideogameID int    `mapstructure:"videogame_id"`
	PerPage     int    `mapstructure:"per_page"`
	HorizonDays int    `mapstructure:"horizon_days"`
}

// CalendarConfig holds the Google Calendar target.
type CalendarConfig struct {
	CalendarID      string `mapstructure:"calendar_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOJOBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := v.BindEnv("database.dsn", "DOJOBOT_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind database env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("subreddit", "Tekken")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_per_minute", 120)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")

	v.SetDefault("bot.username", "")
	v.SetDefault("bot.password", "")
	v.SetDefault("bot.user_agent", "dojobot/1.0 (by u/tekken-bot)")

	v.SetDefault("reddit.client_id", "")
	v.SetDefault("reddit.client_secret", "")
	v.SetDefault("reddit.base_url", "https://oauth.reddit.com")
	v.SetDefault("reddit.token_url", "https://www.reddit.com/api/v1/access_token")
	v.SetDefault("reddit.permalink_base", "https://www.reddit.com")
	v.SetDefault("reddit.requests_per_second", 1.0)
	v.SetDefault("reddit.burst", 5)
	v.SetDefault("reddit.timeout_seconds", 20)
	v.SetDefault("reddit.breaker_failures", 5)
	v.SetDefault("reddit.breaker_timeout", "1m")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "dojo_comments")
	v.SetDefault("database.max_conns", 2)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_lifetime", "30m")

	v.SetDefault("dojo.leaderboard_size", 5)
	v.SetDefault("dojo.trailer_offset", 0)
	v.SetDefault("dojo.retention_weeks", 20)
	v.SetDefault("dojo.max_feed_items", 1000)
	v.SetDefault("dojo.max_ancestor_depth", 100)
	v.SetDefault("dojo.filler_phrases", []string{
		"you're welcome",
		"youre welcome",
		"no problem",
	})
	v.SetDefault("dojo.widget_name", "Dojo Leaderboard")
	v.SetDefault("dojo.wiki_prefix", "dojo/leaderboard")
	v.SetDefault("dojo.master_flair_template_id", "cc570168-4176-11eb-abb3-0e92e4d477f5")
	v.SetDefault("dojo.master_css_class", "dojo-master")
	v.SetDefault("dojo.former_css_class", "mokujin")
	v.SetDefault("dojo.link_text", "Tekken Dojo")
	v.SetDefault("dojo.useful_widget_name", "Useful Stuff")
	v.SetDefault("dojo.image_widget_name", "Tekken Dojo")
	v.SetDefault("dojo.menu_link_text", "Tekken Dojo")
	v.SetDefault("dojo.wiki_links_per_leader", 25)

	v.SetDefault("livestream.widget_name", "Livestreams")
	v.SetDefault("livestream.max_streams", 5)
	v.SetDefault("livestream.max_status_length", 20)

	v.SetDefault("twitch.client_id", "")
	v.SetDefault("twitch.client_secret", "")
	v.SetDefault("twitch.game_id", "")
	v.SetDefault("twitch.base_url", "https://api.twitch.tv/helix")
	v.SetDefault("twitch.token_url", "https://id.twitch.tv/oauth2/token")

	v.SetDefault("events.widget_name", "Upcoming Events")
	v.SetDefault("sidebar.wiki_page", "config/sidebar")

	v.SetDefault("schedule_rule.flair_text", "Shit Post")
	v.SetDefault("schedule_rule.day", 5)
	v.SetDefault("schedule_rule.removal_reason_title", "Off-schedule shitpost")
	v.SetDefault("schedule_rule.max_feed_items", 200)

	v.SetDefault("scheduler.tick", "1s")
	v.SetDefault("scheduler.run_on_start", true)

	v.SetDefault("tasks", map[string]any{
		TaskLivestreams:     map[string]any{"enabled": true, "interval": "5m"},
		TaskEvents:          map[string]any{"enabled": true, "interval": "1h"},
		TaskScheduleRule:    map[string]any{"enabled": false, "interval": "10m"},
		TaskDojoLeaderboard: map[string]any{"enabled": true, "interval": "24h"},
		TaskDojoAward:       map[string]any{"enabled": true, "interval": "24h"},
		TaskDojoCleaner:     map[string]any{"enabled": true, "interval": "168h"},
		TaskDojoLinks:       map[string]any{"enabled": true, "interval": "24h"},
	})

	v.SetDefault("archive.backend", "")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.base_dir", "data/archive")
	v.SetDefault("archive.prefix", "leaderboards")

	v.SetDefault("startgg.url", "https://api.start.gg/gql/alpha")
	v.SetDefault("startgg.token", "")
	v.SetDefault("startgg.videogame_id", 17)
	v.SetDefault("startgg.per_page", 100)
	v.SetDefault("startgg.horizon_days", 365)

	v.SetDefault("calendar.calendar_id", "")
	v.SetDefault("calendar.credentials_file", "")
}

// Validate enforces required values and reasonable limits.
func (c *Config) Validate() error {
	required := map[string]string{
		"reddit.client_id":     c.Reddit.ClientID,
		"reddit.client_secret": c.Reddit.ClientSecret,
		"bot.username":         c.Bot.Username,
		"bot.password":         c.Bot.Password,
		"database.dsn":         c.Database.DSN,
	}
	if c.TaskEnabled(TaskLivestreams) {
		required["twitch.client_id"] = c.Twitch.ClientID
		required["twitch.client_secret"] = c.Twitch.ClientSecret
		required["twitch.game_id"] = c.Twitch.GameID
	}
	for _, key := range sortedKeys(required) {
		if strings.TrimSpace(required[key]) == "" {
			return fmt.Errorf("%s: %w", key, ErrMissing)
		}
	}
	if c.Subreddit == "" {
		return fmt.Errorf("subreddit: %w", ErrMissing)
	}
	if c.Server.Port < 0 {
		return fmt.Errorf("server.port must be >= 0")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must be >= 0")
	}
	if c.Dojo.LeaderboardSize <= 0 {
		return fmt.Errorf("dojo.leaderboard_size must be > 0")
	}
	if c.Dojo.RetentionWeeks <= 0 {
		return fmt.Errorf("dojo.retention_weeks must be > 0")
	}
	if c.Scheduler.Tick <= 0 {
		return fmt.Errorf("scheduler.tick must be > 0")
	}
	for name, task := range c.Tasks {
		if task.Enabled && task.Interval <= 0 {
			return fmt.Errorf("tasks.%s.interval must be > 0", name)
		}
	}
	switch c.Archive.Backend {
	case "", "memory", "local":
	case "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket: %w", ErrMissing)
		}
	default:
		return fmt.Errorf("unknown archive.backend %q", c.Archive.Backend)
	}
	return nil
}

// ScheduleDay returns the configured ISO weekday and whether it was valid.
// Out-of-range values fall back to Friday (5).
func (c *Config) ScheduleDay() (int, bool) {
	if c.ScheduleRule.Day < 1 || c.ScheduleRule.Day > 7 {
		return 5, false
	}
	return c.ScheduleRule.Day, true
}

// TaskEnabled reports whether the named task is switched on.
func (c *Config) TaskEnabled(name string) bool {
	t, ok := c.Tasks[name]
	return ok && t.Enabled
}

// RetentionHorizon converts retention weeks into a duration.
func (c *Config) RetentionHorizon() time.Duration {
	return time.Duration(c.Dojo.RetentionWeeks) * 7 * 24 * time.Hour
}

// RedditTimeout converts the forum client timeout into a duration.
func (c *Config) RedditTimeout() time.Duration {
	return time.Duration(c.Reddit.TimeoutSeconds) * time.Second
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
