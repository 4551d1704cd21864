package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/map-quest/internal/services"
	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

// Operations accepted on the socket.
const (
	OpStart              = "start"
	OpResume             = "resume"
	OpPromptCount        = "promptCount"
	OpGetPrompt          = "getPrompt"
	OpPickChoice         = "pickChoice"
	OpPreviousMapActions = "previousMapActions"
	OpGameOverContent    = "gameOverContent"
	OpEnd                = "end"
)

// boundOps need a started or resumed session.
var boundOps = map[string]bool{
	OpPromptCount:        true,
	OpGetPrompt:          true,
	OpPickChoice:         true,
	OpPreviousMapActions: true,
	OpGameOverContent:    true,
	OpEnd:                true,
}

var (
	ErrNoActiveSession = errors.New("no active session; send start or resume first")
	ErrUnknownOp       = errors.New("unknown operation")
	ErrMissingField    = errors.New("missing required field")
)

// Request is one client message.
type Request struct {
	ID          json.RawMessage `json:"id,omitempty"` // Echoed back unchanged
	Op          string          `json:"op"`
	SessionID   string          `json:"session_id,omitempty"`
	Game        string          `json:"game,omitempty"`
	GameName    string          `json:"game_name,omitempty"`
	PromptIndex *int            `json:"prompt_index,omitempty"`
	ChoiceIndex *int            `json:"choice_index,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

type PickChoiceResult struct {
	NextPromptIndex state.Destination `json:"next_prompt_index"`
	Actions         []script.Action   `json:"actions"`
	GameOver        bool              `json:"game_over"`
}

// Session is the backend for one connection. It binds at most one game
// session at a time and is not safe for concurrent use; the connection's
// read loop calls Handle in arrival order.
type Session struct {
	game   *services.GameService
	logger *slog.Logger
	bound  uuid.UUID
	closed bool
}

// NewSession creates the backend for a new connection.
func NewSession(game *services.GameService, logger *slog.Logger) *Session {
	return &Session{
		game:   game,
		logger: logger,
	}
}

// SessionID returns the bound game session, or uuid.Nil.
func (s *Session) SessionID() uuid.UUID {
	return s.bound
}

// Close releases the connection's binding. Stored game state is kept so a
// later connection can resume it.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.bound != uuid.Nil {
		s.logger.Debug("Connection session closed", "session_id", s.bound)
	}
	s.bound = uuid.Nil
}

// Handle runs one request and always returns a response for it.
func (s *Session) Handle(ctx context.Context, req Request) Response {
	result, err := s.dispatch(ctx, req)
	if err != nil {
		s.logger.Debug("Request failed", "op", req.Op, "session_id", s.bound, "error", err)
		return Response{ID: req.ID, Error: err.Error(), Code: errorCode(err)}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoActiveSession):
		return "no_active_session"
	case errors.Is(err, ErrUnknownOp):
		return "unknown_op"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	default:
		return services.ErrorCode(err)
	}
}

func (s *Session) dispatch(ctx context.Context, req Request) (any, error) {
	if s.closed {
		return nil, errors.New("session closed")
	}

	switch req.Op {
	case OpStart:
		if req.Game == "" {
			return nil, fmt.Errorf("%w: game", ErrMissingField)
		}
		st, err := s.game.CreateSession(ctx, req.Game, req.GameName)
		if err != nil {
			return nil, err
		}
		s.bound = st.ID
		return st, nil

	case OpResume:
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("%w: session_id must be a UUID", ErrMissingField)
		}
		st, err := s.game.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		s.bound = st.ID
		return st, nil
	}

	if !boundOps[req.Op] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, req.Op)
	}
	if s.bound == uuid.Nil {
		return nil, ErrNoActiveSession
	}

	switch req.Op {
	case OpPromptCount:
		count, err := s.game.PromptCount(ctx, s.bound)
		if err != nil {
			return nil, err
		}
		return map[string]int{"count": count}, nil

	case OpGetPrompt:
		if req.PromptIndex == nil {
			return nil, fmt.Errorf("%w: prompt_index", ErrMissingField)
		}
		return s.game.GetPrompt(ctx, s.bound, *req.PromptIndex)

	case OpPickChoice:
		if req.PromptIndex == nil || req.ChoiceIndex == nil {
			return nil, fmt.Errorf("%w: prompt_index and choice_index", ErrMissingField)
		}
		res, err := s.game.PickChoice(ctx, s.bound, *req.PromptIndex, *req.ChoiceIndex)
		if err != nil {
			return nil, err
		}
		return PickChoiceResult{
			NextPromptIndex: res.NextPromptIndex,
			Actions:         res.Actions,
			GameOver:        res.NextPromptIndex.IsEnd(),
		}, nil

	case OpPreviousMapActions:
		return s.game.PreviousMapActions(ctx, s.bound)

	case OpGameOverContent:
		rep, err := s.game.GameOverReport(ctx, s.bound)
		if err != nil {
			return nil, err
		}
		return rep.Messages, nil

	case OpEnd:
		if err := s.game.DeleteSession(ctx, s.bound); err != nil {
			return nil, err
		}
		s.bound = uuid.Nil
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, req.Op)
}
