package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-flashcards/internal/api/shared"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/service/stats"
)

// StatsService computes the statistics view.
type StatsService interface {
	Overview(ctx context.Context) (*stats.View, error)
}

// StatsResetter clears the study history.
type StatsResetter interface {
	ResetStats(ctx context.Context) error
}

// StatsHandler handles statistics HTTP requests
type StatsHandler struct {
	stats  StatsService
	reset  StatsResetter
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(svc StatsService, reset StatsResetter, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StatsHandler")
	}

	return &StatsHandler{
		stats:  svc,
		reset:  reset,
		logger: logger.With(slog.String("component", "stats_handler")),
	}
}

// GetStats handles GET /stats requests.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	view, err := h.stats.Overview(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// ResetStats handles DELETE /stats requests. Cards and decks are kept.
func (h *StatsHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	if err := h.reset.ResetStats(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to reset statistics")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("study history cleared")
	w.WriteHeader(http.StatusNoContent)
}
