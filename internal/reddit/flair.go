package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// UserFlair is a user's flair in one subreddit.
type UserFlair struct {
	User     string `json:"user"`
	Text     string `json:"flair_text"`
	CSSClass string `json:"flair_css_class"`
}

type flairListResponse struct {
	Users []UserFlair `json:"users"`
	Next  string      `json:"next"`
}

// maxFlairPages guards against a server that never stops paginating.
const maxFlairPages = 1000

// FlairList returns every user flair in the subreddit.
func (c *Client) FlairList(ctx context.Context, sub string) ([]UserFlair, error) {
	var (
		out   []UserFlair
		after string
	)
	for range maxFlairPages {
		q := url.Values{"limit": {"1000"}}
		if after != "" {
			q.Set("after", after)
		}
		resp, err := call[flairListResponse](ctx, c, http.MethodGet, "/r/"+sub+"/api/flairlist", q, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("list flair: %w", err)
		}
		out = append(out, resp.Users...)
		if resp.Next == "" {
			return out, nil
		}
		after = resp.Next
	}
	return out, fmt.Errorf("list flair: more than %d pages", maxFlairPages)
}

// UserFlair returns one user's flair. Users without flair get an empty
// UserFlair.
func (c *Client) UserFlair(ctx context.Context, sub, user string) (UserFlair, error) {
	resp, err := call[flairListResponse](ctx, c, http.MethodGet, "/r/"+sub+"/api/flairlist", url.Values{"name": {user}}, nil, nil)
	if err != nil {
		return UserFlair{}, fmt.Errorf("flair for %s: %w", user, err)
	}
	if len(resp.Users) == 0 {
		return UserFlair{User: user}, nil
	}
	return resp.Users[0], nil
}

// SetFlair sets a user's flair text and CSS class.
func (c *Client) SetFlair(ctx context.Context, sub, user, text, cssClass string) error {
	form := url.Values{
		"api_type":  {"json"},
		"name":      {user},
		"text":      {text},
		"css_class": {cssClass},
	}
	resp, err := call[apiError](ctx, c, http.MethodPost, "/r/"+sub+"/api/flair", nil, form, nil)
	if err != nil {
		return fmt.Errorf("set flair for %s: %w", user, err)
	}
	if err := resp.err(); err != nil {
		return fmt.Errorf("set flair for %s: %w", user, err)
	}
	return nil
}

// SetFlairTemplate assigns a flair template with custom text to a user.
func (c *Client) SetFlairTemplate(ctx context.Context, sub, user, templateID, text string) error {
	form := url.Values{
		"api_type":          {"json"},
		"name":              {user},
		"flair_template_id": {templateID},
		"text":              {text},
	}
	resp, err := call[apiError](ctx, c, http.MethodPost, "/r/"+sub+"/api/selectflair", nil, form, nil)
	if err != nil {
		return fmt.Errorf("select flair for %s: %w", user, err)
	}
	if err := resp.err(); err != nil {
		return fmt.Errorf("select flair for %s: %w", user, err)
	}
	return nil
}
