// Package gitlabapi is a minimal client for the GitLab projects API,
// covering the fork listing endpoint used during retrieval.
package gitlabapi

import (
	"fmt"
	"net/http"
	"time"
)

// RetryConfig configures GitLab client retry behavior.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// HTTPDoer is implemented by http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps GitLab HTTP requests with bounded retries for transient
// failures. With MaxAttempts of 1 every failure surfaces immediately.
type Client struct {
	doer  HTTPDoer
	retry RetryConfig
	// Sleep is injected for testability.
	Sleep func(duration time.Duration)
}

// NewClient creates a GitLab API client wrapper.
func NewClient(doer HTTPDoer, retry RetryConfig) *Client {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	return &Client{
		doer:  doer,
		retry: retry,
		Sleep: time.Sleep,
	}
}

// Do executes a request, retrying transport errors and transient statuses.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}

	ctx := req.Context()
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		nextReq := req.Clone(ctx)
		resp, err := c.doer.Do(nextReq)
		if err != nil {
			lastErr = err
			if attempt == c.retry.MaxAttempts {
				return nil, err
			}
			c.Sleep(backoffForAttempt(c.retry, attempt))
			continue
		}

		if isTransientStatus(resp.StatusCode) && attempt < c.retry.MaxAttempts {
			if resp.Body != nil {
				_ = resp.Body.Close()
			}
			c.Sleep(backoffForAttempt(c.retry, attempt))
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request attempts exhausted: %w", lastErr)
}

func isTransientStatus(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode <= 599
}

func backoffForAttempt(retry RetryConfig, attempt int) time.Duration {
	backoff := retry.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if retry.MaxBackoff > 0 && backoff > retry.MaxBackoff {
			return retry.MaxBackoff
		}
	}
	if retry.MaxBackoff > 0 && backoff > retry.MaxBackoff {
		return retry.MaxBackoff
	}
	return backoff
}
