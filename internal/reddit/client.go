// Package reddit is a small client for the subset of the forum API the bot
// uses: listings, comment and submission streams, sidebar widgets, wiki pages,
// user flair, and moderation actions.
//
// A Client is constructed explicitly with New and passed to whatever needs
// it. There is no package-level session.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/JakeFAU/dojobot/internal/policy/breaker"
	"github.com/JakeFAU/dojobot/internal/policy/ratelimit"
	"github.com/JakeFAU/dojobot/internal/request"
)

// Default endpoints.
const (
	DefaultBaseURL       = "https://oauth.reddit.com"
	DefaultTokenURL      = "https://www.reddit.com/api/v1/access_token"
	DefaultPermalinkBase = "https://www.reddit.com"
)

// ErrNotFound is returned when the API reports a missing resource.
var ErrNotFound = errors.New("reddit: not found")

// Config describes how to reach and authenticate against the API.
type Config struct {
	ClientID      string
	ClientSecret  string
	Username      string
	Password      string
	UserAgent     string
	BaseURL       string
	TokenURL      string
	PermalinkBase string
	Timeout       time.Duration
	Limiter       *ratelimit.Limiter
	Breakers      *breaker.Breakers
}

// Client talks to the forum API on behalf of the bot account.
type Client struct {
	http          *http.Client
	baseURL       string
	permalinkBase string
	userAgent     string
	scrubber      *strings.Replacer
	logger        *zap.Logger
}

// New authenticates with the password grant and confirms the identity of the
// bot account. Any failure here is fatal for the caller.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("reddit: client credentials and bot login are required")
	}
	cfg = withDefaults(cfg)

	base := baseTransport(cfg)
	authCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, &http.Client{
		Transport: base,
		Timeout:   cfg.Timeout,
	})
	src := oauth2.ReuseTokenSource(nil, &passwordSource{
		ctx: authCtx,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		username: cfg.Username,
		password: cfg.Password,
	})
	httpClient := oauth2.NewClient(authCtx, src)
	httpClient.Timeout = cfg.Timeout

	c := newClient(httpClient, cfg, logger)
	me, err := c.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("reddit login: %w", err)
	}
	if !strings.EqualFold(me, cfg.Username) {
		return nil, fmt.Errorf("reddit login: authenticated as %q, want %q", me, cfg.Username)
	}
	c.logger.Info("logged in", zap.String("user", me))
	return c, nil
}

// NewWithHTTPClient builds a Client over an already-authenticated HTTP
// client. Tests use it with httptest servers.
func NewWithHTTPClient(httpClient *http.Client, cfg Config, logger *zap.Logger) *Client {
	return newClient(httpClient, withDefaults(cfg), logger)
}

func newClient(httpClient *http.Client, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	var pairs []string
	for _, secret := range []string{cfg.ClientSecret, cfg.Password} {
		if secret != "" {
			pairs = append(pairs, secret, "[REDACTED]")
		}
	}
	return &Client{
		http:          httpClient,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		permalinkBase: strings.TrimRight(cfg.PermalinkBase, "/"),
		userAgent:     cfg.UserAgent,
		scrubber:      strings.NewReplacer(pairs...),
		logger:        logger.Named("reddit"),
	}
}

func withDefaults(cfg Config) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.PermalinkBase == "" {
		cfg.PermalinkBase = DefaultPermalinkBase
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = request.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return cfg
}

func baseTransport(cfg Config) http.RoundTripper {
	var rt http.RoundTripper = http.DefaultTransport
	if cfg.Breakers != nil {
		rt = &breaker.Transport{Base: rt, Breakers: cfg.Breakers}
	}
	if cfg.Limiter != nil {
		rt = &ratelimit.Transport{Base: rt, Limiter: cfg.Limiter}
	}
	return &userAgentTransport{base: rt, userAgent: cfg.UserAgent}
}

// passwordSource runs the password grant on every call. Script-app tokens
// carry no refresh token, so ReuseTokenSource calls it again on expiry.
type passwordSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string
}

func (s *passwordSource) Token() (*oauth2.Token, error) {
	tok, err := s.conf.PasswordCredentialsToken(s.ctx, s.username, s.password)
	if err != nil {
		return nil, fmt.Errorf("password grant: %w", err)
	}
	return tok, nil
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone) //nolint:wrapcheck // RoundTripper errors pass through untouched
}

// call performs one API request and decodes the JSON response.
func call[T any](ctx context.Context, c *Client, method, path string, query, form url.Values, body any) (T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("raw_json", "1")
	out, err := request.MakeJSON[T](ctx, request.Params{
		Method:     method,
		URL:        c.baseURL + path,
		Query:      query,
		Form:       form,
		Body:       body,
		HTTPClient: c.http,
		UserAgent:  c.userAgent,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		if request.IsStatus(err, http.StatusNotFound) {
			return out, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
		}
		return out, err //nolint:wrapcheck // request errors already name the call
	}
	return out, nil
}

// Me returns the name of the authenticated account.
func (c *Client) Me(ctx context.Context) (string, error) {
	resp, err := call[struct {
		Name string `json:"name"`
	}](ctx, c, http.MethodGet, "/api/v1/me", nil, nil, nil)
	if err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("identity response had no name")
	}
	return resp.Name, nil
}

// Permalink turns an API-relative permalink into an absolute URL.
func (c *Client) Permalink(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.permalinkBase + path
}

// apiError is the {"json":{"errors":[...]}} envelope used by form endpoints.
type apiError struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

func (e apiError) err() error {
	if len(e.JSON.Errors) == 0 {
		return nil
	}
	parts := make([]string, 0, len(e.JSON.Errors))
	for _, item := range e.JSON.Errors {
		strs := make([]string, 0, len(item))
		for _, v := range item {
			if s, ok := v.(string); ok && s != "" {
				strs = append(strs, s)
			}
		}
		parts = append(parts, strings.Join(strs, ": "))
	}
	return fmt.Errorf("reddit api: %s", strings.Join(parts, "; "))
}
