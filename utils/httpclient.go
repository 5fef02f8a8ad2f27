package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
)

const (
	// Fixed request timeout; the genomic APIs can be very slow.
	RequestTimeout = 30 * time.Second

	// Total attempts per request, first try included.
	DefaultMaxAttempts = 5

	// First retry delay; doubles on every subsequent attempt.
	DefaultBaseDelay = 500 * time.Millisecond
)

// ClientError is a non-retryable 4xx response (429 excluded, which is
// retried). Retrying a malformed request cannot succeed, so it is
// surfaced immediately.
type ClientError struct {
	Status int
	Body   string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error: status %d", e.Status)
}

// RequestFailedError wraps the last failure after the retry budget is
// exhausted.
type RequestFailedError struct {
	Attempts int
	Err      error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

// Limiter is the slice of RateLimiter the client needs.
type Limiter interface {
	Acquire()
}

// RetryClient wraps a single HTTP call with a timeout, per-attempt
// rate limiting and exponential backoff. 5xx, 429 and transport
// failures are retried; other 4xx responses are not.
type RetryClient struct {
	http        *http.Client
	limiter     Limiter
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(time.Duration)
}

// RetryOption configures a RetryClient during construction.
type RetryOption func(*RetryClient)

func WithHTTPClient(c *http.Client) RetryOption {
	return func(rc *RetryClient) { rc.http = c }
}

func WithLogger(l *slog.Logger) RetryOption {
	return func(rc *RetryClient) {
		if l != nil {
			rc.logger = l
		}
	}
}

func WithMaxAttempts(n int) RetryOption {
	return func(rc *RetryClient) { rc.maxAttempts = n }
}

func WithBaseDelay(d time.Duration) RetryOption {
	return func(rc *RetryClient) { rc.baseDelay = d }
}

// WithSleep overrides how the client waits between attempts, for
// deterministic tests.
func WithSleep(sleep func(time.Duration)) RetryOption {
	return func(rc *RetryClient) { rc.sleep = sleep }
}

// NewRetryClient builds a client governed by the given limiter. A nil
// limiter disables rate limiting (the remote store has no quota).
func NewRetryClient(limiter Limiter, opts ...RetryOption) *RetryClient {
	rc := &RetryClient{
		http:        &http.Client{Timeout: RequestTimeout},
		limiter:     limiter,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Do performs one logical request, retrying as needed. The body is
// kept as bytes so every attempt can replay it. Callers own the
// response body on success.
func (rc *RetryClient) Do(ctx context.Context, method, url string, body []byte, header http.Header) (*http.Response, error) {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = rc.baseDelay
	retryBackoff.RandomizationFactor = 0
	retryBackoff.Multiplier = 2
	retryBackoff.MaxElapsedTime = 0
	retryBackoff.Reset()

	var lastErr error
	for attempt := 1; attempt <= rc.maxAttempts; attempt++ {
		if attempt > 1 {
			rc.sleep(retryBackoff.NextBackOff())
		}

		// Every attempt consumes a rate-limit slot, success or not.
		if rc.limiter != nil {
			rc.limiter.Acquire()
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		for key, values := range header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		resp, err := rc.http.Do(req)
		if err != nil {
			lastErr = err
			rc.logger.Warn("request attempt failed", "method", method, "url", url, "attempt", attempt, "error", err)
			continue
		}

		switch {
		case resp.StatusCode < 400:
			return resp, nil
		case resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500:
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, &ClientError{Status: resp.StatusCode, Body: string(respBody)}
		default:
			// 429 or 5xx: drain and retry.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream status %d", resp.StatusCode)
			rc.logger.Warn("retryable upstream status", "method", method, "url", url, "attempt", attempt, "status", resp.StatusCode)
		}
	}

	return nil, &RequestFailedError{Attempts: rc.maxAttempts, Err: lastErr}
}
