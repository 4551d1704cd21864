package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/map-quest/internal/logger"
	"github.com/jwebster45206/map-quest/internal/services"
	"github.com/jwebster45206/map-quest/pkg/navigator"
	"github.com/jwebster45206/map-quest/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusForError maps service and navigator errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, navigator.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, navigator.ErrJumpBackDenied), errors.Is(err, navigator.ErrJumpForwardDenied):
		return http.StatusForbidden
	case errors.Is(err, navigator.ErrWrongPrompt), errors.Is(err, storage.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, navigator.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, storage.ErrGameNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeError reports err with the mapped status. Internal errors are logged
// and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := StatusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithError(log, err).Error("Request failed", "method", r.Method, "path", r.URL.Path)
		msg = "Internal server error"
	}
	writeErrorMessage(w, log, status, msg)
}

func methodNotAllowed(w http.ResponseWriter, logger *slog.Logger, r *http.Request, allowed string) {
	logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Allow", allowed)
	writeErrorMessage(w, logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: "+allowed)
}
