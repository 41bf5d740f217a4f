package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/f1-sensors/internal/api/http"
	"github.com/i474232898/f1-sensors/internal/sensor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Refresh resources periodically and serve sensors over HTTP",
	Long: `Fetch every resource once, size the sensor set from the fetched counts,
then refresh each resource on its own schedule while serving the sensors.`,
	Example: `  F1_UPDATE_FREQUENCY_SEC=600 PORT=9000 f1-sensors serve`,
	RunE:    runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// First fetch is synchronous so the counts below are real.
	sched := rt.newScheduler()
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	if rt.files != nil {
		go func() {
			if err := rt.files.Watch(ctx, rt.store, log); err != nil {
				log.Error("cache watcher stopped", "error", err)
			}
		}()
	}

	sensors := sensor.NewRegistry(rt.service, log)
	log.Info("sensors registered",
		"total", sensors.Len(),
		"drivers", rt.service.DriverCount(),
		"constructors", rt.service.ConstructorCount(),
		"races", rt.service.RaceCount())

	app := httpapi.NewApp(true)
	httpapi.RegisterRoutes(app, rt.service, sensors, sched)

	go func() {
		if err := app.Listen(":" + rt.cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	return nil
}
