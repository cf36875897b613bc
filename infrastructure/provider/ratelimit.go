package provider

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedTransport is an http.RoundTripper decorator enforcing a
// requests-per-minute ceiling in front of an embedding or generation
// backend. It composes with other RoundTripper decorators (CachingTransport)
// by chaining in front of http.DefaultTransport the same way.
type RateLimitedTransport struct {
	inner      http.RoundTripper
	limiter    *rate.Limiter
	maxRetries int
}

// NewRateLimitedTransport creates a RateLimitedTransport enforcing rpm
// requests per minute, retrying up to maxRetries times on HTTP 429 with
// Retry-After honored when present, else a 20s·2^attempt backoff — the
// rate limiter's only contested in-process lock is rate.Limiter's own
// internal mutex-guarded timestamp computation.
func NewRateLimitedTransport(rpm int, maxRetries int, inner http.RoundTripper) *RateLimitedTransport {
	if inner == nil {
		inner = http.DefaultTransport
	}
	if rpm <= 0 {
		rpm = 10
	}
	limit := rate.Limit(float64(rpm) / 60.0)
	return &RateLimitedTransport{
		inner:      inner,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error
	delay := 20 * time.Second

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}

		resp, err := t.inner.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		lastResp, lastErr = resp, err
		if attempt == t.maxRetries {
			break
		}

		wait := retryAfter(resp)
		if wait <= 0 {
			wait = delay
			delay *= 2
		}
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}

	return lastResp, lastErr
}

// retryAfter parses the Retry-After header, returning 0 if absent or
// unparseable as either delta-seconds or an HTTP-date.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(v); err == nil {
		return time.Until(when)
	}
	return 0
}

var _ http.RoundTripper = (*RateLimitedTransport)(nil)
