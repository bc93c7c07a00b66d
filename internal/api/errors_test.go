package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-flashcards/internal/api/shared"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/domain/srs"
	"github.com/phrazzld/scry-flashcards/internal/service/study"
	"github.com/phrazzld/scry-flashcards/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"nil error", nil, http.StatusInternalServerError},
		{"empty queue", study.ErrEmptyQueue, http.StatusNoContent},
		{"card not found", store.ErrCardNotFound, http.StatusNotFound},
		{"wrapped deck not found", fmt.Errorf("failed to load: %w", store.ErrDeckNotFound), http.StatusNotFound},
		{"session not found", study.ErrSessionNotFound, http.StatusNotFound},
		{"backup exists", store.ErrBackupExists, http.StatusConflict},
		{"step in progress", study.ErrStepInProgress, http.StatusConflict},
		{"session completed", study.ErrSessionCompleted, http.StatusConflict},
		{"domain validation", domain.NewValidationError("name", "cannot be empty", domain.ErrEmptyContent), http.StatusBadRequest},
		{"wrong card", study.ErrWrongCard, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown mode", srs.ErrUnknownMode, http.StatusBadRequest},
		{"persist pending", fmt.Errorf("%w: %w", study.ErrPersistPending, errors.New("io")), http.StatusServiceUnavailable},
		{"unknown error", errors.New("unknown error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestMapErrorToStatusCode_RequestValidation(t *testing.T) {
	err := shared.ValidateRequest(&CreateDeckRequest{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(err))
	assert.Equal(t, "Invalid Name: required field", GetSafeErrorMessage(err))
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"card", store.ErrCardNotFound, "Card not found"},
		{"deck", fmt.Errorf("x: %w", store.ErrDeckNotFound), "Deck not found"},
		{"backup", store.ErrBackupNotFound, "Backup not found"},
		{"session", study.ErrSessionNotFound, "Study session not found"},
		{"backup exists", store.ErrBackupExists, "Backup already exists"},
		{"domain validation", domain.NewValidationError("color", "must be a #RRGGBB hex value", domain.ErrInvalidColor), "Invalid color: must be a #RRGGBB hex value"},
		{"internal details hidden", errors.New("pq: password authentication failed for user scry"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	v := validator.New()
	err := v.Struct(struct {
		Mode string `validate:"oneof=due deck"`
	}{Mode: "later"})
	require.Error(t, err)
	assert.Equal(t, "Invalid Mode: invalid value", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
}

func TestHandleAPIError(t *testing.T) {
	t.Run("no content has no body", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleAPIError(w, httptest.NewRequest(http.MethodPost, "/api/sessions", nil), study.ErrEmptyQueue, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("fallback replaces generic 500 message", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleAPIError(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil),
			errors.New("dial tcp 10.0.0.1:5432: refused"), "Failed to load statistics")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp shared.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Failed to load statistics", resp.Error)
		assert.NotContains(t, w.Body.String(), "10.0.0.1")
	})
}
