package app

import (
	"fmt"
	"log/slog"

	"github.com/i474232898/f1-sensors/internal/config"
	"github.com/i474232898/f1-sensors/internal/f1"
	"github.com/i474232898/f1-sensors/internal/f1/providers"
	"github.com/i474232898/f1-sensors/internal/scheduler"
	"github.com/i474232898/f1-sensors/internal/store"
)

// runtime holds the wired components shared by the commands.
type runtime struct {
	cfg     *config.AppConfig
	log     *slog.Logger
	store   *store.MemoryStore
	files   *store.FilePersister // set for the file backend only
	service *f1.Service
	closers []func() error
}

func (rt *runtime) Close() {
	for _, c := range rt.closers {
		if err := c(); err != nil {
			rt.log.Warn("close failed", "error", err)
		}
	}
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := cfg.Logger()
	rt := &runtime{cfg: cfg, log: log}

	var persister store.Persister
	switch cfg.CacheBackend {
	case config.CacheFile:
		fp, err := store.NewFilePersister(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		rt.files = fp
		persister = fp
	case config.CacheSQLite:
		sp, err := store.NewSQLitePersister(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, sp.Close)
		persister = sp
	}

	// In-memory slots, optionally warmed from the persisted copies.
	rt.store = store.NewMemoryStore(persister, log)
	rt.store.Warm()

	httpClient, err := providers.NewHTTPClient(cfg.HTTPTimeout)
	if err != nil {
		rt.Close()
		return nil, err
	}
	source := providers.NewErgastProvider(httpClient, cfg.DriversURL, cfg.ConstructorsURL, cfg.SeasonURL).
		WithRetry(f1.RetryPolicy{
			MaxAttempts: cfg.HTTPRetryMaxAttempts,
			Delay:       cfg.HTTPRetryDelay,
			MaxDelay:    cfg.HTTPRetryMaxDelay,
			Multiplier:  2,
		})

	rt.service = f1.NewService(rt.store, source,
		f1.WithLogger(log),
		f1.WithRetryPolicy(f1.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			Delay:       cfg.RetryDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Multiplier:  cfg.RetryMultiplier,
		}),
	)
	return rt, nil
}

func (rt *runtime) newScheduler() *scheduler.Scheduler {
	return scheduler.New(rt.cfg.UpdateFrequency, rt.service, rt.log,
		scheduler.WithConcurrency(rt.cfg.FetchConcurrency))
}
