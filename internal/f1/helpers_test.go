package f1_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/f1-sensors/internal/f1"
	"github.com/i474232898/f1-sensors/internal/store"
)

var errTransport = errors.New("connection refused")

// scriptedSource replays queued responses per resource; the last response
// repeats once the queue is drained.
type scriptedSource struct {
	mu    sync.Mutex
	queue map[f1.Resource][]response
	calls map[f1.Resource]int
}

type response struct {
	body []byte
	err  error
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{
		queue: make(map[f1.Resource][]response),
		calls: make(map[f1.Resource]int),
	}
}

func (s *scriptedSource) push(r f1.Resource, body []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue[r] = append(s.queue[r], response{body: body, err: err})
}

func (s *scriptedSource) Fetch(_ context.Context, r f1.Resource) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[r]++
	q := s.queue[r]
	if len(q) == 0 {
		return nil, errTransport
	}
	resp := q[0]
	if len(q) > 1 {
		s.queue[r] = q[1:]
	}
	return resp.body, resp.err
}

func (s *scriptedSource) callCount(r f1.Resource) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[r]
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return b
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

// newTestService returns a service over a fresh memory store, a scripted
// source and a fake clock set to now.
func newTestService(t *testing.T, now time.Time, opts ...f1.Option) (*f1.Service, *scriptedSource, fakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	src := newScriptedSource()
	st := store.NewMemoryStore(nil, quietLogger())
	base := []f1.Option{
		f1.WithClock(clock),
		f1.WithLogger(quietLogger()),
		f1.WithRetryPolicy(f1.RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond}),
	}
	return f1.NewService(st, src, append(base, opts...)...), src, clock
}

// loadFixtures fetches every resource from the testdata documents.
func loadFixtures(t *testing.T, svc *f1.Service, src *scriptedSource) {
	t.Helper()
	files := map[f1.Resource]string{
		f1.ResourceDrivers:      "drivers.json",
		f1.ResourceConstructors: "constructors.json",
		f1.ResourceSeason:       "season.json",
	}
	for r, name := range files {
		src.push(r, readFixture(t, name), nil)
		if err := svc.FetchOnce(context.Background(), r); err != nil {
			t.Fatalf("FetchOnce(%s): %v", r, err)
		}
	}
}
