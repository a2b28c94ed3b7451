// Package startgg queries the tournament provider's GraphQL API for upcoming
// tournaments of one videogame.
package startgg

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/request"
)

// Defaults.
const (
	DefaultURL     = "https://api.start.gg/gql/alpha"
	DefaultPerPage = 100
	siteURL        = "https://start.gg/"
	twitchURL      = "https://twitch.tv/"
	// maxPages stops a misbehaving server from paging forever.
	maxPages = 500
)

const tournamentsQuery = `query TournamentsByVideogame($perPage: Int!, $page: Int!, $videogameId: ID!, $afterDate: Timestamp, $beforeDate: Timestamp) {
  tournaments(query: {
    perPage: $perPage
    page: $page
    sortBy: "startAt asc"
    filter: {afterDate: $afterDate, beforeDate: $beforeDate, videogameIds: [$videogameId]}
  }) {
    nodes {
      name
      slug
      startAt
      endAt
      streams {
        streamName
        streamSource
      }
    }
  }
}`

// Tournament is one listed tournament.
type Tournament struct {
	Name      string
	URL       string
	Start     time.Time
	End       time.Time
	TwitchURL string
}

// Config configures the client.
type Config struct {
	URL        string
	Token      string
	PerPage    int
	UserAgent  string
	HTTPClient *http.Client
}

// Client is a tournament provider API client.
type Client struct {
	url        string
	token      string
	perPage    int
	userAgent  string
	httpClient *http.Client
	scrubber   *strings.Replacer
	logger     *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("startgg: token is required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:        cfg.URL,
		token:      cfg.Token,
		perPage:    cfg.PerPage,
		userAgent:  cfg.UserAgent,
		httpClient: cfg.HTTPClient,
		scrubber:   strings.NewReplacer(cfg.Token, "[REDACTED]"),
		logger:     logger.Named("startgg"),
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type stream struct {
	StreamName   string `json:"streamName"`
	StreamSource string `json:"streamSource"`
}

type node struct {
	Name    string   `json:"name"`
	Slug    string   `json:"slug"`
	StartAt int64    `json:"startAt"`
	EndAt   int64    `json:"endAt"`
	Streams []stream `json:"streams"`
}

type tournamentsResponse struct {
	Data struct {
		Tournaments struct {
			Nodes []node `json:"nodes"`
		} `json:"tournaments"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Tournaments lists tournaments starting between after and before, oldest
// first. Paging stops at the first page shorter than the page size.
func (c *Client) Tournaments(ctx context.Context, videogameID int, after, before time.Time) ([]Tournament, error) {
	var out []Tournament
	for page := 1; page <= maxPages; page++ {
		nodes, err := c.page(ctx, videogameID, page, after, before)
		if err != nil {
			return nil, fmt.Errorf("tournaments page %d: %w", page, err)
		}
		c.logger.Debug("tournament page", zap.Int("page", page), zap.Int("count", len(nodes)))
		for _, n := range nodes {
			out = append(out, toTournament(n))
		}
		if len(nodes) < c.perPage {
			return out, nil
		}
	}
	return out, fmt.Errorf("tournaments: more than %d pages", maxPages)
}

func (c *Client) page(ctx context.Context, videogameID, page int, after, before time.Time) ([]node, error) {
	resp, err := request.MakeJSON[tournamentsResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    c.url,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.token,
		},
		Body: graphQLRequest{
			Query: tournamentsQuery,
			Variables: map[string]any{
				"perPage":     c.perPage,
				"page":        page,
				"videogameId": videogameID,
				"afterDate":   after.Unix(),
				"beforeDate":  before.Unix(),
			},
		},
		HTTPClient: c.httpClient,
		UserAgent:  c.userAgent,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	return resp.Data.Tournaments.Nodes, nil
}

func toTournament(n node) Tournament {
	t := Tournament{
		Name:  n.Name,
		URL:   siteURL + strings.TrimPrefix(n.Slug, "/"),
		Start: time.Unix(n.StartAt, 0).UTC(),
		End:   time.Unix(n.EndAt, 0).UTC(),
	}
	// The last Twitch stream wins when several are listed.
	for _, s := range n.Streams {
		if s.StreamSource == "TWITCH" && s.StreamName != "" {
			t.TwitchURL = twitchURL + s.StreamName
		}
	}
	return t
}
