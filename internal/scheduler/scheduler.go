package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"

	"github.com/i474232898/f1-sensors/internal/f1"
)

// Fetcher refreshes one resource.
type Fetcher interface {
	FetchOnce(ctx context.Context, resource f1.Resource) error
}

// Scheduler refreshes every resource on its own periodic job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	resources []f1.Resource
	interval  time.Duration
	log       *slog.Logger

	// concurrency bounds FetchAll; one fetches the resources in turn.
	concurrency int

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[f1.Resource]*gocron.Job
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithConcurrency limits how many fetches FetchAll runs at once. Values
// below one are ignored.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n >= 1 {
			s.concurrency = n
		}
	}
}

// New creates a new Scheduler for all resources. By default FetchAll fetches
// every resource at once.
func New(interval time.Duration, fetcher Fetcher, log *slog.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		fetcher:     fetcher,
		resources:   f1.Resources(),
		interval:    interval,
		log:         log,
		concurrency: len(f1.Resources()),
		jobs:        make(map[f1.Resource]*gocron.Job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fetches every resource once and waits for those fetches, so counts
// are available to the caller, then schedules the periodic jobs. The first
// periodic run happens one interval after Start.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: invalid interval %s", s.interval)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.FetchAll(s.ctx)
	if err := s.ctx.Err(); err != nil {
		return err
	}

	for _, r := range s.resources {
		job, err := s.scheduler.
			Every(s.interval).
			WaitForSchedule().
			SingletonMode().
			Tag(string(r)).
			Do(s.run, r)
		if err != nil {
			s.cancel()
			return fmt.Errorf("scheduler: schedule %s: %w", r, err)
		}
		s.mu.Lock()
		s.jobs[r] = job
		s.mu.Unlock()
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started",
		"resources", len(s.resources),
		"every", durafmt.Parse(s.interval).String())
	return nil
}

// FetchAll fetches every resource, at most concurrency at a time, and waits
// for all of them.
func (s *Scheduler) FetchAll(ctx context.Context) {
	swg := sizedwaitgroup.New(s.concurrency)
	for _, r := range s.resources {
		swg.Add()
		go func(r f1.Resource) {
			defer swg.Done()
			s.fetch(ctx, r)
		}(r)
	}
	swg.Wait()
}

func (s *Scheduler) run(r f1.Resource) {
	s.fetch(s.ctx, r)
}

func (s *Scheduler) fetch(ctx context.Context, r f1.Resource) {
	if err := s.fetcher.FetchOnce(ctx, r); err != nil {
		s.log.Error("scheduler: fetch failed", "resource", r, "error", err)
	}
}

// Cancel removes the periodic job of one resource. An in-flight run is not
// interrupted.
func (s *Scheduler) Cancel(r f1.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[r]; !ok {
		return fmt.Errorf("scheduler: no job for %s", r)
	}
	if err := s.scheduler.RemoveByTag(string(r)); err != nil {
		return fmt.Errorf("scheduler: cancel %s: %w", r, err)
	}
	delete(s.jobs, r)
	s.log.Info("scheduler: job cancelled", "resource", r)
	return nil
}

// NextRuns reports when each scheduled resource refreshes next.
func (s *Scheduler) NextRuns() map[f1.Resource]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[f1.Resource]time.Time, len(s.jobs))
	for r, job := range s.jobs {
		out[r] = job.NextRun()
	}
	return out
}

// Stop cancels in-flight retries and stops the scheduler.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
