package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/amaumene/listarr/internal/api"
	"github.com/amaumene/listarr/internal/config"
	"github.com/amaumene/listarr/internal/controllers"
	"github.com/amaumene/listarr/internal/models"
	"github.com/amaumene/listarr/internal/providers"
	"github.com/amaumene/listarr/internal/providers/imdb"
	"github.com/amaumene/listarr/internal/providers/mdblist"
	"github.com/amaumene/listarr/internal/providers/trakt"
	"github.com/amaumene/listarr/internal/scheduler"
	"github.com/amaumene/listarr/internal/services/overseerr"
	"github.com/amaumene/listarr/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Listarr")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize provider fetchers
	registry, err := providers.NewRegistry(
		mdblist.NewFetcher(logger),
		trakt.NewFetcher(logger),
		imdb.NewFetcher(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to build provider registry: %w", err)
	}
	logger.Info("Provider registry initialized")

	// 5. Initialize downstream request client
	requester, err := overseerr.NewClient(cfg.OverseerrURL, cfg.OverseerrAPIKey, cfg.OverseerrUserID, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Overseerr client: %w", err)
	}
	logger.Info("Overseerr client initialized")

	// 6. Initialize controllers
	settings := controllers.NewStaticSettings(map[models.ProviderKind]providers.Credentials{
		models.ProviderMDBList: {APIKey: cfg.MDBListAPIKey},
		models.ProviderTrakt:   {ClientID: cfg.TraktClientID},
		models.ProviderIMDB:    {APIKey: cfg.TMDBAPIKey},
	}, requester)
	tracker := controllers.NewTracker(db, logger)
	processor := controllers.NewProcessor(db, registry, settings, tracker, cfg.FetchDelay(), logger)
	logger.Info("Controllers initialized")

	// 7. Initialize scheduler; callbacks are injected here so the scheduler
	// never depends on the controllers
	sched := scheduler.NewScheduler(db, cfg.Timezone,
		func(listID uint64, trigger models.TriggerKind, userID uint64) error {
			_, err := processor.ProcessList(context.Background(), listID, trigger, userID)
			return err
		},
		func(trigger models.TriggerKind) error {
			_, err := processor.ProcessBatch(context.Background(), trigger, 1)
			return err
		},
		logger,
	)

	if err := sched.LoadScheduledLists(); err != nil {
		return fmt.Errorf("failed to load scheduled lists: %w", err)
	}
	if err := sched.ScheduleGlobal(cfg.SyncSchedule); err != nil {
		return fmt.Errorf("failed to install global schedule: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, db, processor, sched, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Listarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Listarr stopped")
	return nil
}
