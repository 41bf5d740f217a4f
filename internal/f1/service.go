package f1

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/atomic"
)

// Service owns the snapshot slots through a Store, refreshes them from a
// Source and answers the derived read queries.
type Service struct {
	store  Store
	source Source
	retry  RetryPolicy
	clock  clockwork.Clock
	log    *slog.Logger

	stats map[Resource]*fetchCounters
}

// Option customises a Service.
type Option func(*Service)

// WithClock sets the clock used for fetch timestamps and next-race lookups.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithRetryPolicy sets how malformed upstream bodies are retried.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) { s.retry = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a new Service. source may be nil for read-only use.
func NewService(store Store, source Source, opts ...Option) *Service {
	s := &Service{
		store:  store,
		source: source,
		retry:  DefaultRetryPolicy(),
		clock:  clockwork.NewRealClock(),
		log:    slog.Default(),
		stats:  make(map[Resource]*fetchCounters, 3),
	}
	for _, r := range Resources() {
		s.stats[r] = newFetchCounters()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current instant of the service clock in UTC.
func (s *Service) Now() time.Time {
	return s.clock.Now().UTC()
}

// FetchOnce fetches resource and replaces its snapshot on success.
//
// A transport failure is returned immediately and leaves the snapshot as it
// was; the next scheduled cycle tries again. A malformed body is retried
// according to the retry policy, and when the policy gives up the previous
// snapshot is kept.
func (s *Service) FetchOnce(ctx context.Context, resource Resource) error {
	if s.source == nil {
		return fmt.Errorf("fetch %s: no source configured", resource)
	}
	counters, ok := s.stats[resource]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResource, string(resource))
	}

	s.log.Info("fetching update", "resource", resource)

	for attempt := 1; ; attempt++ {
		body, err := s.source.Fetch(ctx, resource)
		if err != nil {
			counters.transportErrors.Inc()
			return fmt.Errorf("fetch %s: %w", resource, err)
		}

		snap, err := Decode(resource, body, s.clock.Now())
		if err == nil {
			s.store.Save(snap)
			counters.successes.Inc()
			counters.lastSuccess.Store(snap.FetchedAt.UnixNano())
			s.log.Debug("snapshot replaced",
				"resource", resource,
				"revision", snap.Revision,
				"checksum", snap.Checksum[:12])
			return nil
		}

		counters.malformed.Inc()
		if !errors.Is(err, ErrMalformed) || s.retry.Exhausted(attempt) {
			s.log.Error("giving up on malformed update; keeping last snapshot",
				"resource", resource, "attempts", attempt, "error", err)
			return err
		}

		delay := s.retry.Backoff(attempt)
		s.log.Warn("malformed update; retrying",
			"resource", resource, "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(delay):
		}
	}
}

// FetchStats is a point-in-time copy of the fetch counters of a resource.
type FetchStats struct {
	Successes       int64     `json:"successes"`
	TransportErrors int64     `json:"transportErrors"`
	Malformed       int64     `json:"malformed"`
	LastSuccess     time.Time `json:"lastSuccess,omitempty"`
}

type fetchCounters struct {
	successes       *atomic.Int64
	transportErrors *atomic.Int64
	malformed       *atomic.Int64
	lastSuccess     *atomic.Int64 // unix nanos, 0 = never
}

func newFetchCounters() *fetchCounters {
	return &fetchCounters{
		successes:       atomic.NewInt64(0),
		transportErrors: atomic.NewInt64(0),
		malformed:       atomic.NewInt64(0),
		lastSuccess:     atomic.NewInt64(0),
	}
}

// Stats returns the fetch counters of every resource.
func (s *Service) Stats() map[Resource]FetchStats {
	out := make(map[Resource]FetchStats, len(s.stats))
	for r, c := range s.stats {
		st := FetchStats{
			Successes:       c.successes.Load(),
			TransportErrors: c.transportErrors.Load(),
			Malformed:       c.malformed.Load(),
		}
		if ns := c.lastSuccess.Load(); ns != 0 {
			st.LastSuccess = time.Unix(0, ns).UTC()
		}
		out[r] = st
	}
	return out
}
