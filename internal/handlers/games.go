package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/map-quest/pkg/storage"
)

// GamesHandler serves the game script catalogue.
// Routes:
// GET /v1/games        - display name to file map
// GET /v1/games/{file} - one script document
type GamesHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewGamesHandler(s storage.Storage, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		storage: s,
		logger:  logger,
	}
}

func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, r, "GET")
		return
	}

	file := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/games"), "/")
	if file == "" {
		h.handleList(w, r)
		return
	}
	if strings.Contains(file, "..") || strings.Contains(file, "/") {
		writeErrorMessage(w, h.logger, http.StatusBadRequest, "Invalid filename")
		return
	}
	h.handleGet(w, r, file)
}

func (h *GamesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	games, err := h.storage.ListGames(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, games)
}

func (h *GamesHandler) handleGet(w http.ResponseWriter, r *http.Request, file string) {
	gs, err := h.storage.GetGame(r.Context(), file)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}
