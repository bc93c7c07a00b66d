package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-flashcards/internal/api"
	apiMiddleware "github.com/phrazzld/scry-flashcards/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	deckHandler := api.NewDeckHandler(app.deckService, app.logger)
	sessionHandler := api.NewSessionHandler(app.studyService, app.logger)
	statsHandler := api.NewStatsHandler(app.statsService, app.deckService, app.logger)
	backupHandler := api.NewBackupHandler(app.storage, app.logger)
	healthHandler := api.NewHealthHandler(app.config.Storage.Driver, app.backend.ping, app.studyService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/decks", deckHandler.ListDecks)
		r.Post("/decks", deckHandler.CreateDeck)
		r.Route("/decks/{id}", func(r chi.Router) {
			r.Get("/", deckHandler.GetDeck)
			r.Put("/", deckHandler.UpdateDeck)
			r.Delete("/", deckHandler.DeleteDeck)
			r.Get("/cards", deckHandler.ListCards)
			r.Post("/cards", deckHandler.AddCard)
		})

		r.Get("/cards/{id}", deckHandler.GetCard)
		r.Put("/cards/{id}", deckHandler.UpdateCard)
		r.Delete("/cards/{id}", deckHandler.DeleteCard)

		r.Post("/sessions", sessionHandler.StartSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Post("/answers", sessionHandler.SubmitAnswer)
			r.Post("/retry", sessionHandler.RetrySession)
			r.Post("/abandon", sessionHandler.AbandonSession)
		})

		r.Get("/stats", statsHandler.GetStats)
		r.Delete("/stats", statsHandler.ResetStats)

		r.Get("/backups", backupHandler.ListBackups)
		r.Post("/backups", backupHandler.CreateBackup)
		r.Post("/backups/import", backupHandler.ImportBackup)
		r.Get("/backups/{ts}/export", backupHandler.ExportBackup)
		r.Post("/backups/{ts}/restore", backupHandler.RestoreBackup)
		r.Delete("/backups/{ts}", backupHandler.DeleteBackup)
	})

	r.Get("/health", healthHandler.Health)

	return r
}
