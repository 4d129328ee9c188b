package callback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client invokes timer callbacks. Only success or failure matters to
// the pipeline; response bodies are drained and discarded.
type Client struct {
	http *http.Client
}

// New creates a Client with a bounded per-invocation timeout. A callback
// that never responds must not hold a firer worker indefinitely.
func New(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// Invoke POSTs to the callback URL with an empty body. Any transport
// error or non-2xx status is a failure; the caller decides whether to
// retry via queue redelivery.
func (c *Client) Invoke(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("invoke callback %s: %w", url, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback %s returned status %d", url, resp.StatusCode)
	}
	return nil
}
