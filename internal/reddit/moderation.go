package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
)

// RemovalReason is a saved moderator removal reason.
type RemovalReason struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// RemovalReasons lists the subreddit's removal reasons in display order.
func (c *Client) RemovalReasons(ctx context.Context, sub string) ([]RemovalReason, error) {
	resp, err := call[struct {
		Data  map[string]RemovalReason `json:"data"`
		Order []string                 `json:"order"`
	}](ctx, c, http.MethodGet, "/api/v1/"+sub+"/removal_reasons", nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list removal reasons: %w", err)
	}
	out := make([]RemovalReason, 0, len(resp.Order))
	for _, id := range resp.Order {
		if r, ok := resp.Data[id]; ok {
			if r.ID == "" {
				r.ID = id
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// Remove removes a post or comment and, when reasonID is set, attaches the
// removal reason.
func (c *Client) Remove(ctx context.Context, fullname, reasonID string) error {
	form := url.Values{"id": {fullname}, "spam": {"false"}}
	if _, err := call[json.RawMessage](ctx, c, http.MethodPost, "/api/remove", nil, form, nil); err != nil {
		return fmt.Errorf("remove %s: %w", fullname, err)
	}
	if reasonID == "" {
		return nil
	}
	body := map[string]any{
		"item_ids":  []string{fullname},
		"reason_id": reasonID,
		"mod_note":  "",
	}
	if _, err := call[json.RawMessage](ctx, c, http.MethodPost, "/api/v1/modactions/removal_reasons", nil, nil, body); err != nil {
		return fmt.Errorf("attach removal reason to %s: %w", fullname, err)
	}
	return nil
}

// SendRemovalMessage posts the removal notice. kind is "public",
// "private", or "private_exposed".
func (c *Client) SendRemovalMessage(ctx context.Context, fullname, title, message, kind string) error {
	body := map[string]any{
		"item_id": []string{fullname},
		"title":   title,
		"message": message,
		"type":    kind,
	}
	if _, err := call[json.RawMessage](ctx, c, http.MethodPost, "/api/v1/modactions/removal_link_message", nil, nil, body); err != nil {
		return fmt.Errorf("send removal message for %s: %w", fullname, err)
	}
	return nil
}
