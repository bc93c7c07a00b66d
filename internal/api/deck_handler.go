package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-flashcards/internal/api/shared"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/service"
)

// DeckHandler handles deck and card HTTP requests
type DeckHandler struct {
	decks  service.DeckService
	logger *slog.Logger
}

// NewDeckHandler creates a new DeckHandler
func NewDeckHandler(decks service.DeckService, logger *slog.Logger) *DeckHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}

	return &DeckHandler{
		decks:  decks,
		logger: logger.With(slog.String("component", "deck_handler")),
	}
}

// ListDecks handles GET /decks requests.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.decks.ListDecks(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list decks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, decks)
}

// CreateDeck handles POST /decks requests.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateDeckRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	deck, err := h.decks.CreateDeck(r.Context(), service.DeckInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create deck")
		return
	}

	log.Debug("deck created", slog.String("deck_id", deck.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, deck)
}

// GetDeck handles GET /decks/{id} requests.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	deck, err := h.decks.GetDeck(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get deck")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, deck)
}

// UpdateDeck handles PUT /decks/{id} requests.
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CreateDeckRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	deck, err := h.decks.UpdateDeck(r.Context(), id, service.DeckInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update deck")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, deck)
}

// DeleteDeck handles DELETE /decks/{id} requests. The deck's cards go with it.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.decks.DeleteDeck(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete deck")
		return
	}

	log.Debug("deck deleted", slog.String("deck_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListCards handles GET /decks/{id}/cards requests.
func (h *DeckHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	cards, err := h.decks.ListCards(r.Context(), deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list cards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// AddCard handles POST /decks/{id}/cards requests.
func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.decks.AddCard(r.Context(), deckID, service.CardInput{
		Front: req.Front,
		Back:  req.Back,
		Tags:  req.Tags,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create card")
		return
	}

	log.Debug("card created",
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", card.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, card)
}

// GetCard handles GET /cards/{id} requests.
func (h *DeckHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.decks.GetCard(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// UpdateCard handles PUT /cards/{id} requests. Only content changes; the
// schedule is kept.
func (h *DeckHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.decks.UpdateCard(r.Context(), id, service.CardInput{
		Front: req.Front,
		Back:  req.Back,
		Tags:  req.Tags,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// DeleteCard handles DELETE /cards/{id} requests.
func (h *DeckHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.decks.DeleteCard(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete card")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
