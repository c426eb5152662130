package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/geolocator/internal/adapters/postgres"
	"github.com/samirrijal/geolocator/internal/pkg/config"
	"github.com/samirrijal/geolocator/internal/pkg/logging"
	"github.com/samirrijal/geolocator/internal/workflows"
)

func main() {
	cfg, err := config.Load("geolocator-recorder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := postgres.New(context.Background(), cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Recorder.TemporalHost,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Recorder.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RecordGuessWorkflow)
	w.RegisterActivity(&workflows.GuessActivities{
		Ledger: postgres.NewGameRepo(db),
	})

	slog.Info("recorder worker started", "task_queue", cfg.Recorder.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
