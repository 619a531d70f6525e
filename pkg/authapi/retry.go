package authapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// RetryConfig bounds the retry loop for transient failures.
type RetryConfig struct {
	MaxAttempts  int           // total attempts, including the first
	InitialDelay time.Duration // delay before the second attempt
	MaxDelay     time.Duration // backoff ceiling
}

// DefaultRetryConfig retries transient failures up to 3 times with 500ms/1s/2s
// delays.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// doWithRetry executes the request produced by build, retrying network errors
// and 5xx responses with exponential backoff. 4xx responses are returned to
// the caller immediately. build is invoked per attempt so request bodies are
// never replayed from a consumed reader.
func doWithRetry(ctx context.Context, client *http.Client, cfg RetryConfig, build func(context.Context) (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		switch {
		case err == nil && resp.StatusCode < http.StatusInternalServerError:
			return resp, nil
		case err == nil:
			// 5xx: drain and retry.
			lastErr = &APIError{Message: http.StatusText(resp.StatusCode), StatusCode: resp.StatusCode}
			resp.Body.Close()
		case retriable(err):
			lastErr = err
		default:
			return nil, err
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return nil, lastErr
}

// retriable reports whether the transport error is worth another attempt.
func retriable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
