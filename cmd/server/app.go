package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-flashcards/internal/config"
	"github.com/phrazzld/scry-flashcards/internal/domain/srs"
	"github.com/phrazzld/scry-flashcards/internal/events"
	"github.com/phrazzld/scry-flashcards/internal/service"
	"github.com/phrazzld/scry-flashcards/internal/service/stats"
	"github.com/phrazzld/scry-flashcards/internal/service/study"
	"github.com/phrazzld/scry-flashcards/internal/store/kvstore"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	backend *storageBackend
	storage *kvstore.Store

	deckService  service.DeckService
	studyService *study.Service
	statsService *stats.Service

	eventEmitter *events.InMemoryEventEmitter
}

// newApplication opens storage, repairs it and builds the services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := &application{
		config: cfg,
		logger: logger,
	}

	backend, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	app.backend = backend

	if err := app.initServices(ctx); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

func (app *application) initServices(ctx context.Context) error {
	cfg, logger := app.config, app.logger

	storage, err := kvstore.New(app.backend.kv, kvstore.Config{
		KeyPrefix:   cfg.Storage.KeyPrefix,
		BackupLimit: cfg.Backup.Keep,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create record store: %w", err)
	}
	app.storage = storage

	report, err := storage.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("storage initialized",
		slog.String("driver", cfg.Storage.Driver),
		slog.Int("decks", report.Decks),
		slog.Int("cards", report.Cards),
		slog.Int("sessions", report.Sessions),
		slog.Int("skipped", report.Skipped),
		slog.Int("orphan_cards", report.OrphanCards))

	params, err := srs.NewParams(srs.ParamsConfig{BatchSize: cfg.Study.BatchSize})
	if err != nil {
		return fmt.Errorf("invalid study parameters: %w", err)
	}

	location, err := cfg.Study.Location()
	if err != nil {
		return fmt.Errorf("invalid study timezone: %w", err)
	}

	app.deckService, err = service.NewDeckService(storage, logger)
	if err != nil {
		return fmt.Errorf("failed to create deck service: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	service.SubscribeDeckEvents(app.eventEmitter, app.deckService)

	app.studyService, err = study.NewService(
		storage,
		srs.NewServiceWithParams(params),
		srs.NewSelector(params, nil),
		logger,
		study.WithEmitter(app.eventEmitter),
	)
	if err != nil {
		return fmt.Errorf("failed to create study service: %w", err)
	}

	app.statsService, err = stats.NewService(storage, location, logger)
	if err != nil {
		return fmt.Errorf("failed to create stats service: %w", err)
	}

	return nil
}

// cleanup abandons active sessions and closes the storage backend.
func (app *application) cleanup() {
	if app.studyService != nil {
		if err := app.studyService.AbandonAll(context.Background()); err != nil {
			app.logger.Error("failed to save active sessions", slog.String("error", err.Error()))
		}
	}
	if app.backend != nil {
		if err := app.backend.close(); err != nil {
			app.logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}
}
