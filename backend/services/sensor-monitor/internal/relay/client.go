package relay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client posts JSON documents to a single upstream endpoint.
type Client struct {
	url    string
	client HTTPDoer
}

// NewClient builds a client for url. A nil doer gets a default http.Client.
func NewClient(url string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = NewDefaultHTTPClient(5 * time.Second)
	}
	return &Client{
		url:    strings.TrimSpace(url),
		client: doer,
	}
}

// URL returns the upstream endpoint.
func (c *Client) URL() string {
	return c.url
}

// Post sends body with headers and returns the response status.
func (c *Client) Post(ctx context.Context, body []byte, headers map[string]string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
