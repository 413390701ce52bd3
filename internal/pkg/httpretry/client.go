// Package httpretry wraps an HTTP client with retry on transient upstream
// failures, using exponential backoff with full jitter.
package httpretry

import (
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// Doer executes HTTP requests. Both *http.Client and *Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client retries requests whose responses carry a retryable status code
// (429, 500, 502, 503, 504). Transport errors and client errors are
// returned immediately; the caller owns those.
type Client struct {
	doer       Doer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// New wraps doer with up to maxRetries retry attempts. A nil doer gets a
// default client with a 30s timeout.
func New(doer Doer, maxRetries int) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		doer:       doer,
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   8 * time.Second,
	}
}

// WithDelays overrides the backoff window.
func (c *Client) WithDelays(base, max time.Duration) *Client {
	c.baseDelay = base
	c.maxDelay = max
	return c
}

// Do executes the request, retrying retryable statuses. The final response
// is returned as-is so the caller can inspect status and body. Requests
// without GetBody cannot be replayed and are not retried.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.doer.Do(req)
		if err != nil {
			return nil, err
		}
		if !retryableStatus(resp.StatusCode) || attempt == c.maxRetries {
			return resp, nil
		}
		if req.Body != nil && req.GetBody == nil {
			return resp, nil
		}

		// drain for connection reuse before replaying
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		timer := time.NewTimer(c.backoff(attempt + 1))
		select {
		case <-timer.C:
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}
	}
}

// backoff returns a full-jitter delay for the given attempt:
// random(0, min(maxDelay, baseDelay * 2^(attempt-1))).
func (c *Client) backoff(attempt int) time.Duration {
	window := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	if window > float64(c.maxDelay) {
		window = float64(c.maxDelay)
	}
	d := time.Duration(rand.Float64() * window)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
