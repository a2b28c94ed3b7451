// Package twitch lists live channels for a game from the Helix API.
package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/JakeFAU/dojobot/internal/policy/breaker"
	"github.com/JakeFAU/dojobot/internal/policy/ratelimit"
	"github.com/JakeFAU/dojobot/internal/request"
)

// Default endpoints.
const (
	DefaultBaseURL  = "https://api.twitch.tv/helix"
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"
	channelBaseURL  = "https://www.twitch.tv/"
	maxPageSize     = 100
)

// Config holds app credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	UserAgent    string
	Timeout      time.Duration
	Limiter      *ratelimit.Limiter
	Breakers     *breaker.Breakers
}

// Channel is a live stream.
type Channel struct {
	Name    string
	Login   string
	Title   string
	Viewers int
	URL     string
}

// Client calls Helix with an app access token.
type Client struct {
	http      *http.Client
	baseURL   string
	clientID  string
	userAgent string
	scrubber  *strings.Replacer
	logger    *zap.Logger
}

// New builds a Client that fetches app tokens with the client credentials
// grant. Tokens are fetched lazily and reused until they expire.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("twitch: client id and secret are required")
	}
	cfg = withDefaults(cfg)

	var base http.RoundTripper = http.DefaultTransport
	if cfg.Breakers != nil {
		base = &breaker.Transport{Base: base, Breakers: cfg.Breakers}
	}
	if cfg.Limiter != nil {
		base = &ratelimit.Transport{Base: base, Limiter: cfg.Limiter}
	}
	authCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, &http.Client{
		Transport: base,
		Timeout:   cfg.Timeout,
	})
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	httpClient := cc.Client(authCtx)
	httpClient.Timeout = cfg.Timeout
	return newClient(httpClient, cfg, logger), nil
}

// NewWithHTTPClient builds a Client over an already-authenticated HTTP client.
func NewWithHTTPClient(httpClient *http.Client, cfg Config, logger *zap.Logger) *Client {
	return newClient(httpClient, withDefaults(cfg), logger)
}

func newClient(httpClient *http.Client, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	var pairs []string
	if cfg.ClientSecret != "" {
		pairs = append(pairs, cfg.ClientSecret, "[REDACTED]")
	}
	return &Client{
		http:      httpClient,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		clientID:  cfg.ClientID,
		userAgent: cfg.UserAgent,
		scrubber:  strings.NewReplacer(pairs...),
		logger:    logger.Named("twitch"),
	}
}

func withDefaults(cfg Config) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = request.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return cfg
}

type streamsResponse struct {
	Data []struct {
		UserID      string `json:"user_id"`
		UserLogin   string `json:"user_login"`
		UserName    string `json:"user_name"`
		Title       string `json:"title"`
		ViewerCount int    `json:"viewer_count"`
	} `json:"data"`
}

// LiveChannels returns up to max live channels for the game, most watched
// first.
func (c *Client) LiveChannels(ctx context.Context, gameID string, max int) ([]Channel, error) {
	if gameID == "" {
		return nil, fmt.Errorf("game id is required")
	}
	if max <= 0 {
		return nil, nil
	}
	first := min(max, maxPageSize)

	resp, err := request.MakeJSON[streamsResponse](ctx, request.Params{
		Method: http.MethodGet,
		URL:    c.baseURL + "/streams",
		Query: url.Values{
			"game_id": {gameID},
			"first":   {strconv.Itoa(first)},
		},
		Headers:    map[string]string{"Client-ID": c.clientID},
		HTTPClient: c.http,
		UserAgent:  c.userAgent,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}

	out := make([]Channel, 0, len(resp.Data))
	for _, s := range resp.Data {
		login := s.UserLogin
		if login == "" {
			login = strings.ToLower(s.UserName)
		}
		name := s.UserName
		if name == "" {
			name = login
		}
		out = append(out, Channel{
			Name:    name,
			Login:   login,
			Title:   SanitizeTitle(s.Title),
			Viewers: s.ViewerCount,
			URL:     channelBaseURL + login,
		})
		if len(out) == max {
			break
		}
	}
	c.logger.Debug("live channels", zap.String("game_id", gameID), zap.Int("count", len(out)))
	return out, nil
}

var titleEscaper = strings.NewReplacer(
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"\r", "",
	"\n", "",
)

// SanitizeTitle makes a stream title safe to embed in a Markdown link.
func SanitizeTitle(s string) string {
	return titleEscaper.Replace(s)
}
