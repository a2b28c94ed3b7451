// Package request provides utilities for making JSON HTTP requests against
// upstream APIs.
package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultUserAgent identifies the bot when Params.UserAgent is empty.
const DefaultUserAgent = "dojobot/1.0"

// DefaultClient is a [http.Client] with nice defaults.
var DefaultClient = &http.Client{
	Timeout: 20 * time.Second,
}

// Params defines the parameters needed for making an HTTP request.
type Params struct {
	// Method is the HTTP method (GET, POST, etc.) for the request.
	Method string
	// URL is the target URL of the request.
	URL string
	// Query is appended to URL.
	Query url.Values
	// Headers is a map of key-value pairs for additional request headers.
	Headers map[string]string
	// Body is marshaled to JSON. Ignored when Form is set.
	Body any
	// Form is sent as application/x-www-form-urlencoded.
	Form url.Values
	// HTTPClient is an optional custom HTTP client. DefaultClient is used
	// otherwise.
	HTTPClient *http.Client
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// Scrubber removes secrets from error messages.
	Scrubber *strings.Replacer
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %q: want 2xx, got %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// IsStatus reports whether err wraps a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

type scrubbedError struct {
	err      error
	scrubber *strings.Replacer
}

func (se *scrubbedError) Error() string {
	if se.scrubber != nil {
		return se.scrubber.Replace(se.err.Error())
	}
	return se.err.Error()
}

func (se *scrubbedError) Unwrap() error { return se.err }

func scrubErr(err error, scrubber *strings.Replacer) error {
	return &scrubbedError{err: err, scrubber: scrubber}
}

// MakeJSON makes an HTTP request with the provided parameters and unmarshals
// the JSON response body into the specified type. An empty response body
// leaves the zero value.
func MakeJSON[Response any](ctx context.Context, p Params) (Response, error) {
	var resp Response

	body, contentType, err := encodeBody(p)
	if err != nil {
		return resp, scrubErr(err, p.Scrubber)
	}

	target := p.URL
	if len(p.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + p.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, p.Method, target, body)
	if err != nil {
		return resp, scrubErr(err, p.Scrubber)
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	ua := p.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	httpc := DefaultClient
	if p.HTTPClient != nil {
		httpc = p.HTTPClient
	}

	res, err := httpc.Do(req)
	if err != nil {
		return resp, scrubErr(err, p.Scrubber)
	}
	defer res.Body.Close() //nolint:errcheck // read-only body

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return resp, scrubErr(err, p.Scrubber)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return resp, scrubErr(&StatusError{
			Method: p.Method,
			URL:    p.URL,
			Code:   res.StatusCode,
			Body:   truncate(string(b), 512),
		}, p.Scrubber)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		return resp, scrubErr(fmt.Errorf("decode %s %q: %w", p.Method, p.URL, err), p.Scrubber)
	}

	return resp, nil
}

func encodeBody(p Params) (io.Reader, string, error) {
	if p.Form != nil {
		return strings.NewReader(p.Form.Encode()), "application/x-www-form-urlencoded", nil
	}
	if p.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(p.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
