package store

import (
	"log/slog"
	"sync"

	"github.com/i474232898/f1-sensors/internal/f1"
)

// ErrNotFound is returned when no snapshot is available for a resource.
var ErrNotFound = f1.ErrNotFound

// Persister keeps a durable copy of the latest document per resource.
type Persister interface {
	Persist(snap *f1.Snapshot) error
	Load(resource f1.Resource) (*f1.Snapshot, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of f1.Store
// holding exactly one snapshot per resource.
type MemoryStore struct {
	mu sync.RWMutex

	// key: resource, value: latest snapshot (never mutated after Save)
	slots map[f1.Resource]*f1.Snapshot

	persister Persister
	log       *slog.Logger
}

// NewMemoryStore creates an empty MemoryStore. persister may be nil.
func NewMemoryStore(persister Persister, log *slog.Logger) *MemoryStore {
	if log == nil {
		log = slog.Default()
	}
	return &MemoryStore{
		slots:     make(map[f1.Resource]*f1.Snapshot, 3),
		persister: persister,
		log:       log,
	}
}

// Save replaces the snapshot of its resource and writes it through to the
// persister when the body changed. Persister failures are logged only.
func (s *MemoryStore) Save(snap *f1.Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	prev := s.slots[snap.Resource]
	s.slots[snap.Resource] = snap
	s.mu.Unlock()

	if s.persister == nil {
		return
	}
	if prev != nil && prev.Checksum == snap.Checksum {
		s.log.Debug("snapshot unchanged; skipping persist", "resource", snap.Resource)
		return
	}
	if err := s.persister.Persist(snap); err != nil {
		s.log.Error("failed to persist snapshot", "resource", snap.Resource, "error", err)
	}
}

// Latest returns the current snapshot of resource.
func (s *MemoryStore) Latest(resource f1.Resource) (*f1.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.slots[resource]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// Warm loads every resource from the persister. Missing or corrupt copies
// are logged and skipped, so reads fall back to the placeholder.
func (s *MemoryStore) Warm() {
	if s.persister == nil {
		return
	}
	for _, r := range f1.Resources() {
		s.reload(r)
	}
}

func (s *MemoryStore) reload(r f1.Resource) {
	snap, err := s.persister.Load(r)
	if err != nil {
		s.log.Warn("no usable cached snapshot", "resource", r, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.slots[r]; ok && cur.Checksum == snap.Checksum {
		return
	}
	s.slots[r] = snap
	s.log.Info("loaded cached snapshot", "resource", r, "fetchedAt", snap.FetchedAt)
}
