// Package main contains the entrypoint for the memora server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/memora-app/memora/internal/config"
	"github.com/memora-app/memora/internal/gemini"
	"github.com/memora-app/memora/internal/logger"
	"github.com/memora-app/memora/internal/scheduler"
	"github.com/memora-app/memora/internal/server"
	"github.com/memora-app/memora/internal/speech"
	"github.com/memora-app/memora/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, store, gemini client,
// speech client, scheduler, HTTP server), blocks until shutdown, and returns
// an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	st, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize store", "backend", cfg.Store.Backend, "error", err)
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("Failed to close store", "error", err)
		}
	}()

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	var synthesizer speech.Synthesizer
	if cfg.Speech.Enabled {
		synthesizer = speech.NewMiniMax(cfg.Speech, log)
	} else {
		log.Info("Speech synthesis disabled; chat replies will carry no audio")
	}

	sched, err := newScheduler(cfg, st, log)
	if err != nil {
		log.Error("Failed to initialize scheduler", "error", err)
		return 1
	}
	if sched != nil {
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				log.Error("Failed to stop scheduler", "error", err)
			}
		}()
	}

	handlers := server.NewHandlers(st, gemClient, synthesizer, log)
	srv := server.New(cfg.Server.Addr, handlers, log)

	log.Info("Starting server...", "addr", cfg.Server.Addr, "store_backend", cfg.Store.Backend)
	runErr := srv.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Server stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Server stopped gracefully.")
	return 0
}

// newStore constructs the configured persistence backend.
func newStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		return store.NewFirestore(ctx, cfg.Store.Firestore.ProjectID, cfg.Store.Firestore.CredentialsFile, log)
	default:
		return store.NewSQLite(cfg.Store.SQLite.Path, log)
	}
}

// newScheduler sets up the maintenance job. Returns nil when nothing needs
// scheduling (maintenance disabled or the backend maintains itself).
func newScheduler(cfg *config.Config, st store.Store, log *slog.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Scheduler.MaintenanceEnabled || cfg.Store.Backend != config.BackendSQLite {
		return nil, nil
	}

	sched, err := scheduler.New(log)
	if err != nil {
		return nil, err
	}

	if err := sched.AddCronJob("store_maintenance", cfg.Scheduler.MaintenanceSchedule, st.RunMaintenance); err != nil {
		return nil, err
	}
	return sched, nil
}
