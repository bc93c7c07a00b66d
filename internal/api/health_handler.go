package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-flashcards/internal/api/shared"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
)

// HealthCheck probes a dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness, the storage driver and the number of
// active study sessions.
type HealthHandler struct {
	driver string
	check  HealthCheck
	study  StudyService
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler. check may be nil.
func NewHealthHandler(driver string, check HealthCheck, svc StudyService, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		driver: driver,
		check:  check,
		study:  svc,
		logger: logger.With(slog.String("component", "health_handler")),
	}
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Storage: h.driver}
	if h.study != nil {
		resp.ActiveSessions = len(h.study.Active())
	}

	status := http.StatusOK
	if h.check != nil {
		if err := h.check(r.Context()); err != nil {
			logger.FromContextOrDefault(r.Context(), h.logger).Error("health check failed",
				slog.String("error", err.Error()))
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	shared.RespondWithJSON(w, r, status, resp)
}
