package reddit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/JakeFAU/dojobot/internal/dojo"
)

// Submission is a post.
type Submission struct {
	ID         string
	Fullname   string
	Title      string
	Author     string
	Permalink  string
	Flair      string
	Stickied   bool
	CreatedUTC time.Time
}

type listing struct {
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type linkData struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Permalink     string  `json:"permalink"`
	Stickied      bool    `json:"stickied"`
	LinkFlairText string  `json:"link_flair_text"`
	CreatedUTC    float64 `json:"created_utc"`
}

type commentData struct {
	ID         string  `json:"id"`
	ParentID   string  `json:"parent_id"`
	LinkID     string  `json:"link_id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

func unixSeconds(v float64) time.Time {
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func (c *Client) toSubmission(d linkData) Submission {
	fullname := d.Name
	if fullname == "" {
		fullname = "t3_" + d.ID
	}
	return Submission{
		ID:         d.ID,
		Fullname:   fullname,
		Title:      d.Title,
		Author:     d.Author,
		Permalink:  c.Permalink(d.Permalink),
		Flair:      d.LinkFlairText,
		Stickied:   d.Stickied,
		CreatedUTC: unixSeconds(d.CreatedUTC),
	}
}

// toComment normalizes deleted and removed bodies to "".
func (c *Client) toComment(d commentData) dojo.Comment {
	body := d.Body
	if body == "[deleted]" || body == "[removed]" {
		body = ""
	}
	return dojo.Comment{
		ID:         d.ID,
		ParentID:   d.ParentID,
		ThreadID:   strings.TrimPrefix(d.LinkID, "t3_"),
		Author:     d.Author,
		Body:       body,
		Permalink:  c.Permalink(d.Permalink),
		CreatedUTC: unixSeconds(d.CreatedUTC),
	}
}

func (c *Client) decodeListing(l listing) ([]Submission, []dojo.Comment, error) {
	var (
		subs     []Submission
		comments []dojo.Comment
	)
	for _, child := range l.Data.Children {
		switch child.Kind {
		case "t3":
			var d linkData
			if err := json.Unmarshal(child.Data, &d); err != nil {
				return nil, nil, fmt.Errorf("decode submission: %w", err)
			}
			subs = append(subs, c.toSubmission(d))
		case "t1":
			var d commentData
			if err := json.Unmarshal(child.Data, &d); err != nil {
				return nil, nil, fmt.Errorf("decode comment: %w", err)
			}
			comments = append(comments, c.toComment(d))
		}
	}
	return subs, comments, nil
}

// StickyThread returns the first pinned post of the subreddit.
func (c *Client) StickyThread(ctx context.Context, sub string) (Submission, error) {
	l, err := call[listing](ctx, c, http.MethodGet, "/r/"+sub+"/hot", url.Values{"limit": {"10"}}, nil, nil)
	if err != nil {
		return Submission{}, fmt.Errorf("list hot posts: %w", err)
	}
	subs, _, err := c.decodeListing(l)
	if err != nil {
		return Submission{}, err
	}
	for _, s := range subs {
		if s.Stickied {
			return s, nil
		}
	}
	return Submission{}, fmt.Errorf("no pinned post in r/%s: %w", sub, ErrNotFound)
}

// Info fetches things by fullname.
func (c *Client) info(ctx context.Context, fullname string) ([]Submission, []dojo.Comment, error) {
	l, err := call[listing](ctx, c, http.MethodGet, "/api/info", url.Values{"id": {fullname}}, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("info %s: %w", fullname, err)
	}
	return c.decodeListing(l)
}

// Comment fetches a comment by bare id. A comment missing from the listing
// yields an error wrapping both ErrNotFound and dojo.ErrCommentGone.
func (c *Client) Comment(ctx context.Context, id string) (dojo.Comment, error) {
	_, comments, err := c.info(ctx, "t1_"+strings.TrimPrefix(id, "t1_"))
	if err != nil {
		return dojo.Comment{}, err
	}
	if len(comments) == 0 {
		return dojo.Comment{}, fmt.Errorf("comment %s: %w: %w", id, ErrNotFound, dojo.ErrCommentGone)
	}
	return comments[0], nil
}

// Parent fetches the comment that c replies to. Top-level comments have no
// parent comment.
func (c *Client) Parent(ctx context.Context, cm dojo.Comment) (dojo.Comment, error) {
	if cm.IsRoot() {
		return dojo.Comment{}, fmt.Errorf("comment %s is top-level: %w", cm.ID, ErrNotFound)
	}
	return c.Comment(ctx, cm.ParentID)
}

func (c *Client) newComments(ctx context.Context, sub string) ([]dojo.Comment, error) {
	l, err := call[listing](ctx, c, http.MethodGet, "/r/"+sub+"/comments", url.Values{"limit": {"100"}}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	_, comments, err := c.decodeListing(l)
	return comments, err
}

func (c *Client) newSubmissions(ctx context.Context, sub string) ([]Submission, error) {
	l, err := call[listing](ctx, c, http.MethodGet, "/r/"+sub+"/new", url.Values{"limit": {"100"}}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	subs, _, err := c.decodeListing(l)
	return subs, err
}

// CommentStream polls the subreddit's newest comments.
func (c *Client) CommentStream(sub string) *Stream[dojo.Comment] {
	return NewStream(func(ctx context.Context) ([]dojo.Comment, error) {
		return c.newComments(ctx, sub)
	}, func(cm dojo.Comment) string { return cm.ID }, DefaultSeenLimit)
}

// SubmissionStream polls the subreddit's newest posts.
func (c *Client) SubmissionStream(sub string) *Stream[Submission] {
	return NewStream(func(ctx context.Context) ([]Submission, error) {
		return c.newSubmissions(ctx, sub)
	}, func(s Submission) string { return s.ID }, DefaultSeenLimit)
}
