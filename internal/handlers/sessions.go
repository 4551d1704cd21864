package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/map-quest/internal/report"
	"github.com/jwebster45206/map-quest/internal/services"
	"github.com/jwebster45206/map-quest/pkg/navigator"
	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

// CreateSessionRequest defines the request body for starting a session
type CreateSessionRequest struct {
	Game     string `json:"game"`                // Required: game script filename
	GameName string `json:"game_name,omitempty"` // Optional: overrides the script's name
}

type NavigateRequest struct {
	PromptIndex *int `json:"prompt_index"`
}

type PickChoiceRequest struct {
	PromptIndex *int `json:"prompt_index"`
	ChoiceIndex *int `json:"choice_index"`
}

type PickChoiceResponse struct {
	NextPromptIndex state.Destination `json:"next_prompt_index"`
	Actions         []script.Action   `json:"actions"`
	GameOver        bool              `json:"game_over"`
}

type PromptCountResponse struct {
	Count int `json:"count"`
}

// SessionsHandler exposes the prompt navigator over HTTP.
// Routes:
// POST   /v1/sessions                  - Start a session
// GET    /v1/sessions/{id}             - Read session state
// DELETE /v1/sessions/{id}             - End a session
// GET    /v1/sessions/{id}/prompt-count
// POST   /v1/sessions/{id}/navigate    - Move to a prompt
// POST   /v1/sessions/{id}/choices     - Pick a choice on the current prompt
// GET    /v1/sessions/{id}/actions     - Map actions to replay
// GET    /v1/sessions/{id}/report      - Game-over report
// GET    /v1/sessions/{id}/report.pdf  - Game-over report as PDF
type SessionsHandler struct {
	game   *services.GameService
	logger *slog.Logger
}

func NewSessionsHandler(game *services.GameService, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		game:   game,
		logger: logger,
	}
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, "POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	idStr, sub, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", idStr, "error", err)
		writeErrorMessage(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			methodNotAllowed(w, h.logger, r, "GET, DELETE")
		}
	case "prompt-count":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, h.logger, r, "GET")
			return
		}
		h.handlePromptCount(w, r, id)
	case "navigate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, "POST")
			return
		}
		h.handleNavigate(w, r, id)
	case "choices":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, "POST")
			return
		}
		h.handlePickChoice(w, r, id)
	case "actions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, h.logger, r, "GET")
			return
		}
		h.handleActions(w, r, id)
	case "report":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, h.logger, r, "GET")
			return
		}
		h.handleReport(w, r, id)
	case "report.pdf":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, h.logger, r, "GET")
			return
		}
		h.handleReportPDF(w, r, id)
	default:
		writeErrorMessage(w, h.logger, http.StatusNotFound, "Unknown session resource: "+sub)
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid create session request", "error", err)
		writeErrorMessage(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Game) == "" {
		writeErrorMessage(w, h.logger, http.StatusBadRequest, "game is required")
		return
	}

	s, err := h.game.CreateSession(r.Context(), req.Game, req.GameName)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+s.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, s)
}

func (h *SessionsHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.game.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.game.DeleteSession(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) handlePromptCount(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	count, err := h.game.PromptCount(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, PromptCountResponse{Count: count})
}

func (h *SessionsHandler) handleNavigate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PromptIndex == nil {
		writeErrorMessage(w, h.logger, http.StatusBadRequest, "prompt_index is required")
		return
	}

	content, err := h.game.GetPrompt(r.Context(), id, *req.PromptIndex)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, content)
}

func (h *SessionsHandler) handlePickChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req PickChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PromptIndex == nil || req.ChoiceIndex == nil {
		writeErrorMessage(w, h.logger, http.StatusBadRequest, "prompt_index and choice_index are required")
		return
	}

	result, err := h.game.PickChoice(r.Context(), id, *req.PromptIndex, *req.ChoiceIndex)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, PickChoiceResponse{
		NextPromptIndex: result.NextPromptIndex,
		Actions:         result.Actions,
		GameOver:        result.NextPromptIndex.IsEnd(),
	})
}

func (h *SessionsHandler) handleActions(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	actions, err := h.game.PreviousMapActions(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, actions)
}

func (h *SessionsHandler) handleReport(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	rep, err := h.game.GameOverReport(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, rep)
}

func (h *SessionsHandler) handleReportPDF(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	rep, err := h.game.GameOverReport(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := report.PDF(rep)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+reportFilename(rep)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write report pdf", "error", err, "session_id", id)
	}
}

// reportFilename builds a download name from the game name, keeping only
// characters that are safe in a header value.
func reportFilename(rep navigator.Report) string {
	var b strings.Builder
	for _, c := range strings.ToLower(rep.GameName) {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "game"
	}
	return name + "-report.pdf"
}
