package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/scry-flashcards/internal/api/shared"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// MaxImportBytes caps the size of an imported backup body.
const MaxImportBytes = 32 << 20

// BackupHandler handles backup HTTP requests
type BackupHandler struct {
	backups store.BackupStore
	logger  *slog.Logger
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(backups store.BackupStore, logger *slog.Logger) *BackupHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for BackupHandler")
	}

	return &BackupHandler{
		backups: backups,
		logger:  logger.With(slog.String("component", "backup_handler")),
	}
}

// ListBackups handles GET /backups requests.
func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	list, err := h.backups.ListBackups(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list backups")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, list)
}

// CreateBackup handles POST /backups requests.
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := h.backups.CreateBackup(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create backup")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("backup created",
		slog.String("timestamp", backup.Timestamp))
	shared.RespondWithJSON(w, r, http.StatusCreated, backup.Summary())
}

// ImportBackup handles POST /backups/import requests with an exported backup as body.
func (h *BackupHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)

	backup, err := h.backups.ImportBackup(r.Context(), r.Body)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import backup")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("backup imported",
		slog.String("timestamp", backup.Timestamp))
	shared.RespondWithJSON(w, r, http.StatusCreated, backup.Summary())
}

// ExportBackup handles GET /backups/{ts}/export requests.
func (h *BackupHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.timestamp(w, r)
	if !ok {
		return
	}

	// Buffered so a failed export still gets a proper error status.
	var buf bytes.Buffer
	if err := h.backups.ExportBackup(r.Context(), ts, &buf); err != nil {
		HandleAPIError(w, r, err, "Failed to export backup")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="flashcards-backup-%s.json"`, ts))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Error("failed to write backup export",
			slog.String("error", err.Error()))
	}
}

// RestoreBackup handles POST /backups/{ts}/restore requests.
func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.timestamp(w, r)
	if !ok {
		return
	}

	backup, err := h.backups.RestoreBackup(r.Context(), ts)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to restore backup")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("backup restored",
		slog.String("timestamp", ts))
	shared.RespondWithJSON(w, r, http.StatusOK, backup.Summary())
}

// DeleteBackup handles DELETE /backups/{ts} requests.
func (h *BackupHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.timestamp(w, r)
	if !ok {
		return
	}

	if err := h.backups.DeleteBackup(r.Context(), ts); err != nil {
		HandleAPIError(w, r, err, "Failed to delete backup")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BackupHandler) timestamp(w http.ResponseWriter, r *http.Request) (string, bool) {
	ts := chi.URLParam(r, "ts")
	if ts == "" {
		HandleAPIError(w, r, domain.NewValidationError("ts", "is required", nil), "")
		return "", false
	}
	return ts, true
}
