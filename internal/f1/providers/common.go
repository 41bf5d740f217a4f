package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/net/http2"

	"github.com/i474232898/f1-sensors/internal/f1"
)

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid transport retry policy")
)

// Transport is the HTTP client and the transport retry budget shared by the
// providers. Retry must be bounded: MaxAttempts of at least 1.
type Transport struct {
	Client *http.Client
	Retry  f1.RetryPolicy
}

// DefaultTransportRetry makes 4 attempts, doubling from 500ms up to 5s.
func DefaultTransportRetry() f1.RetryPolicy {
	return f1.RetryPolicy{
		MaxAttempts: 4,
		Delay:       500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
	}
}

// NewHTTPClient returns a client with the given timeout whose transport
// negotiates HTTP/2 over TLS.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected default transport %T", http.DefaultTransport)
	}
	t := base.Clone()
	if _, err := http2.ConfigureTransports(t); err != nil {
		return nil, fmt.Errorf("failed to enable http2: %w", err)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: t,
	}, nil
}

// checkStatus maps a non-2xx response to the error that decides whether the
// request is worth repeating.
func checkStatus(resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		return errRateLimited
	case code >= 500:
		return errServerError
	case code < 200 || code >= 300:
		return fmt.Errorf("%w: %d", errUnexpected, code)
	}
	return nil
}

// get fetches url through cb. Network errors, 429 and 5xx are repeated
// within the retry budget; other statuses and an open breaker end at once.
func (t Transport) get(ctx context.Context, cb *gobreaker.CircuitBreaker, url string) (*http.Response, error) {
	if t.Client == nil {
		return nil, errNoHTTPClient
	}
	if t.Retry.MaxAttempts < 1 || t.Retry.Delay <= 0 {
		return nil, errInvalidConfig
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		result, err := cb.Execute(func() (interface{}, error) {
			resp, err := t.Client.Do(req)
			if err != nil {
				return nil, err
			}
			if err := checkStatus(resp); err != nil {
				resp.Body.Close()
				return nil, err
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		case errors.Is(err, errUnexpected):
			return nil, err
		case t.Retry.Exhausted(attempt):
			return nil, err
		}

		timer := time.NewTimer(t.Retry.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
