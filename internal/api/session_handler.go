package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/api/shared"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/domain/srs"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/service/study"
)

// StudyService is the part of study.Service the session endpoints use.
type StudyService interface {
	Start(ctx context.Context, deckID *uuid.UUID, mode srs.Mode) (*study.Session, error)
	Get(id uuid.UUID) (*study.Session, error)
	Submit(ctx context.Context, id, cardID uuid.UUID, result domain.ReviewResult) (*study.StepResult, error)
	RetryPersist(ctx context.Context, id uuid.UUID) (*study.StepResult, error)
	Abandon(ctx context.Context, id uuid.UUID) error
	Active() []uuid.UUID
}

// SessionHandler handles study session HTTP requests
type SessionHandler struct {
	study  StudyService
	logger *slog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(svc StudyService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}

	return &SessionHandler{
		study:  svc,
		logger: logger.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /sessions requests.
// It responds 201 with the session and its queue, or 204 when nothing is due.
// The mode defaults to deck priority for a single deck and due review otherwise.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	mode := srs.ModeDueReview
	if req.DeckID != nil {
		mode = srs.ModeDeckPriority
	}
	if req.Mode != "" {
		parsed, err := srs.ParseMode(req.Mode)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		mode = parsed
	}

	session, err := h.study.Start(r.Context(), req.DeckID, mode)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}

	log.Debug("study session started",
		slog.String("session_id", session.ID().String()),
		slog.String("mode", mode.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session))
}

// GetSession handles GET /sessions/{id} requests for active sessions.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.study.Get(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// SubmitAnswer handles POST /sessions/{id}/answers requests.
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req AnswerRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := domain.ParseReviewResult(req.Result)
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("result", "must be correct or incorrect", err), "")
		return
	}

	step, err := h.study.Submit(r.Context(), id, req.CardID, result)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}

	log.Debug("answer submitted",
		slog.String("session_id", id.String()),
		slog.String("card_id", req.CardID.String()),
		slog.String("result", req.Result),
		slog.Bool("completed", step.Completed))
	shared.RespondWithJSON(w, r, http.StatusOK, step)
}

// RetrySession handles POST /sessions/{id}/retry requests. It saves a
// session whose last save failed.
func (h *SessionHandler) RetrySession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	step, err := h.study.RetryPersist(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save study session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, step)
}

// AbandonSession handles POST /sessions/{id}/abandon requests.
func (h *SessionHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.study.Abandon(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to abandon study session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
