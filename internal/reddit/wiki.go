package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// WikiPage returns the Markdown source of a wiki page.
func (c *Client) WikiPage(ctx context.Context, sub, page string) (string, error) {
	resp, err := call[struct {
		Data struct {
			ContentMD string `json:"content_md"`
		} `json:"data"`
	}](ctx, c, http.MethodGet, "/r/"+sub+"/wiki/"+page, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("read wiki %s: %w", page, err)
	}
	return resp.Data.ContentMD, nil
}

// EditWikiPage replaces a wiki page, creating it if needed.
func (c *Client) EditWikiPage(ctx context.Context, sub, page, content, reason string) error {
	form := url.Values{
		"page":    {page},
		"content": {content},
		"reason":  {reason},
	}
	if _, err := call[struct{}](ctx, c, http.MethodPost, "/r/"+sub+"/api/wiki/edit", nil, form, nil); err != nil {
		return fmt.Errorf("edit wiki %s: %w", page, err)
	}
	return nil
}
