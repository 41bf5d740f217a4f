package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/f1-sensors/internal/f1"
)

// Default endpoints of the Ergast-compatible API.
const (
	DefaultDriversURL      = "https://api.jolpi.ca/ergast/f1/current/driverStandings.json"
	DefaultConstructorsURL = "https://api.jolpi.ca/ergast/f1/current/constructorStandings.json"
	DefaultSeasonURL       = "https://api.jolpi.ca/ergast/f1/current.json"
)

const maxBodyBytes = 8 << 20

// ErgastProvider implements f1.Source against an Ergast-compatible API. Each
// resource has its own endpoint and circuit breaker.
type ErgastProvider struct {
	urls      map[f1.Resource]string
	transport Transport
	circuits  map[f1.Resource]*gobreaker.CircuitBreaker
}

// NewErgastProvider builds a provider; empty URLs fall back to the defaults.
func NewErgastProvider(client *http.Client, driversURL, constructorsURL, seasonURL string) *ErgastProvider {
	urls := map[f1.Resource]string{
		f1.ResourceDrivers:      orDefault(driversURL, DefaultDriversURL),
		f1.ResourceConstructors: orDefault(constructorsURL, DefaultConstructorsURL),
		f1.ResourceSeason:       orDefault(seasonURL, DefaultSeasonURL),
	}

	circuits := make(map[f1.Resource]*gobreaker.CircuitBreaker, len(urls))
	for r := range urls {
		circuits[r] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ergast-" + string(r),
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
	}

	return &ErgastProvider{
		urls: urls,
		transport: Transport{
			Client: client,
			Retry:  DefaultTransportRetry(),
		},
		circuits: circuits,
	}
}

// WithRetry replaces the transport retry budget.
func (p *ErgastProvider) WithRetry(r f1.RetryPolicy) *ErgastProvider {
	p.transport.Retry = r
	return p
}

// URL returns the endpoint of resource.
func (p *ErgastProvider) URL(resource f1.Resource) string {
	return p.urls[resource]
}

// Fetch returns the raw body of resource.
func (p *ErgastProvider) Fetch(ctx context.Context, resource f1.Resource) ([]byte, error) {
	u, ok := p.urls[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %q", f1.ErrUnknownResource, string(resource))
	}

	resp, err := p.transport.get(ctx, p.circuits[resource], u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", resource, err)
	}
	return body, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
