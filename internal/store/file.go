package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/i474232898/f1-sensors/internal/f1"
)

var fileNames = map[f1.Resource]string{
	f1.ResourceDrivers:      "f1_drivers.json",
	f1.ResourceConstructors: "f1_constructors.json",
	f1.ResourceSeason:       "f1_season.json",
}

// FilePersister keeps one JSON file per resource under dir. Files are
// overwritten in place, so a crash mid-write can leave a truncated file; such
// a file fails to decode on load and the resource starts from its placeholder.
type FilePersister struct {
	dir string
}

// NewFilePersister creates dir if needed.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &FilePersister{dir: dir}, nil
}

// Path returns the cache file of resource.
func (p *FilePersister) Path(resource f1.Resource) string {
	return filepath.Join(p.dir, fileNames[resource])
}

func (p *FilePersister) Persist(snap *f1.Snapshot) error {
	if err := os.WriteFile(p.Path(snap.Resource), snap.Body(), 0o644); err != nil {
		return fmt.Errorf("write %s cache: %w", snap.Resource, err)
	}
	return nil
}

func (p *FilePersister) Load(resource f1.Resource) (*f1.Snapshot, error) {
	path := p.Path(resource)
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return f1.Decode(resource, body, info.ModTime())
}

// Watch reloads a slot of st whenever its cache file is rewritten, by this
// process or another one. It blocks until ctx is done.
func (p *FilePersister) Watch(ctx context.Context, st *MemoryStore, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(p.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", p.dir, err)
	}

	byName := make(map[string]f1.Resource, len(fileNames))
	for r, name := range fileNames {
		byName[name] = r
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			r, ok := byName[filepath.Base(ev.Name)]
			if !ok {
				continue
			}
			st.reload(r)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("cache watcher error", "error", err)
		}
	}
}
