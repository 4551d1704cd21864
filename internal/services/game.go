package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/map-quest/internal/services/events"
	"github.com/jwebster45206/map-quest/pkg/navigator"
	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
	"github.com/jwebster45206/map-quest/pkg/storage"
)

// ErrSessionNotFound is returned when a session ID has no stored state.
var ErrSessionNotFound = errors.New("session not found")

// Operation names used in logs and metrics.
const (
	OpCreateSession      = "createSession"
	OpDeleteSession      = "deleteSession"
	OpPromptCount        = "promptCount"
	OpGetPrompt          = "getPrompt"
	OpPickChoice         = "pickChoice"
	OpPreviousMapActions = "previousMapActions"
	OpGameOverContent    = "gameOverContent"
)

// GameService maps session IDs to stored session state and runs navigator
// operations against them. Mutating operations hold the session lock from
// load to save, so one session never has two navigator calls in flight.
type GameService struct {
	storage storage.Storage
	events  events.Publisher
	logger  *slog.Logger
}

// NewGameService creates a game service. publisher may be nil.
func NewGameService(s storage.Storage, publisher events.Publisher, logger *slog.Logger) *GameService {
	return &GameService{
		storage: s,
		events:  publisher,
		logger:  logger,
	}
}

// CreateSession starts a new session for a game script. An empty gameName
// falls back to the script's own name.
func (g *GameService) CreateSession(ctx context.Context, game, gameName string) (*state.SessionState, error) {
	gs, err := g.storage.GetGame(ctx, game)
	if err != nil {
		observe(OpCreateSession, err)
		return nil, err
	}
	if gameName == "" {
		gameName = gs.Name
	}

	s := state.NewSessionState(game, gameName)
	if err := g.storage.SaveSession(ctx, s); err != nil {
		observe(OpCreateSession, err)
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}

	observe(OpCreateSession, nil)
	sessionsCreatedTotal.Inc()
	g.logger.Info("Session created", "session_id", s.ID, "game", game)
	g.publish(ctx, s.ID, events.EventTypeSessionCreated, map[string]any{
		"game":         game,
		"game_name":    s.GameName,
		"prompt_count": len(gs.PromptList),
	})
	return s, nil
}

// GetSession returns the stored state of a session.
func (g *GameService) GetSession(ctx context.Context, id uuid.UUID) (*state.SessionState, error) {
	s, err := g.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// DeleteSession ends a session and discards its state.
func (g *GameService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	err := g.withSession(ctx, id, false, func(_ *navigator.Navigator, _ *state.SessionState) error {
		return g.storage.DeleteSession(ctx, id)
	})
	observe(OpDeleteSession, err)
	if err != nil {
		return err
	}
	sessionsDeletedTotal.Inc()
	g.logger.Info("Session deleted", "session_id", id)
	g.publish(ctx, id, events.EventTypeSessionDeleted, nil)
	return nil
}

// PromptCount returns the number of prompts in the session's game.
func (g *GameService) PromptCount(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := g.readSession(ctx, id, func(nav *navigator.Navigator, _ *state.SessionState) error {
		count = nav.PromptCount()
		return nil
	})
	observe(OpPromptCount, err)
	return count, err
}

// GetPrompt navigates the session to a prompt and returns its content.
func (g *GameService) GetPrompt(ctx context.Context, id uuid.UUID, promptIndex int) (script.PromptContent, error) {
	var content script.PromptContent
	err := g.withSession(ctx, id, true, func(nav *navigator.Navigator, s *state.SessionState) error {
		var err error
		content, err = nav.GetPrompt(s, promptIndex)
		return err
	})
	observe(OpGetPrompt, err)
	if err != nil {
		g.logger.Debug("Navigation refused", "session_id", id, "prompt_index", promptIndex, "error", err)
		return script.PromptContent{}, err
	}

	g.publish(ctx, id, events.EventTypePromptEntered, events.PromptEnteredData(promptIndex, content.Title))
	return content, nil
}

// PickChoice records a choice for the session's current prompt.
func (g *GameService) PickChoice(ctx context.Context, id uuid.UUID, promptIndex, choiceIndex int) (navigator.ChoiceResult, error) {
	var (
		result navigator.ChoiceResult
		game   string
		report navigator.Report
	)
	err := g.withSession(ctx, id, true, func(nav *navigator.Navigator, s *state.SessionState) error {
		var err error
		result, err = nav.PickChoice(s, promptIndex, choiceIndex)
		if err != nil {
			return err
		}
		game = s.Game
		if result.NextPromptIndex.IsEnd() {
			report = nav.GameOverReport(s)
		}
		return nil
	})
	observe(OpPickChoice, err)
	if err != nil {
		g.logger.Debug("Choice refused", "session_id", id, "prompt_index", promptIndex, "choice_index", choiceIndex, "error", err)
		return navigator.ChoiceResult{}, err
	}

	g.logger.Debug("Choice picked",
		"session_id", id,
		"prompt_index", promptIndex,
		"choice_index", choiceIndex,
		"next_prompt_index", result.NextPromptIndex.String(),
		"actions", len(result.Actions))
	g.publish(ctx, id, events.EventTypeChoicePicked, events.ChoicePickedData(promptIndex, choiceIndex, result.NextPromptIndex, result.Actions))

	if result.NextPromptIndex.IsEnd() {
		gamesCompletedTotal.WithLabelValues(game).Inc()
		g.publish(ctx, id, events.EventTypeGameOver, map[string]any{"total_score": report.TotalScore})
	}
	return result, nil
}

// PreviousMapActions returns the map actions to replay for the session.
func (g *GameService) PreviousMapActions(ctx context.Context, id uuid.UUID) ([]script.Action, error) {
	var actions []script.Action
	err := g.readSession(ctx, id, func(nav *navigator.Navigator, s *state.SessionState) error {
		actions = nav.PreviousMapActions(s)
		return nil
	})
	observe(OpPreviousMapActions, err)
	return actions, err
}

// GameOverReport returns the session's score report.
func (g *GameService) GameOverReport(ctx context.Context, id uuid.UUID) (navigator.Report, error) {
	var report navigator.Report
	err := g.readSession(ctx, id, func(nav *navigator.Navigator, s *state.SessionState) error {
		report = nav.GameOverReport(s)
		return nil
	})
	observe(OpGameOverContent, err)
	return report, err
}

// readSession loads a session and its game without taking the lock.
func (g *GameService) readSession(ctx context.Context, id uuid.UUID, fn func(*navigator.Navigator, *state.SessionState) error) error {
	s, err := g.GetSession(ctx, id)
	if err != nil {
		return err
	}
	gs, err := g.storage.GetGame(ctx, s.Game)
	if err != nil {
		return fmt.Errorf("failed to load game for session %s: %w", id, err)
	}
	return fn(navigator.New(gs), s)
}

// withSession runs fn with the session lock held. When save is true the
// session is written back after fn succeeds.
func (g *GameService) withSession(ctx context.Context, id uuid.UUID, save bool, fn func(*navigator.Navigator, *state.SessionState) error) error {
	unlock, err := g.storage.LockSession(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	return g.readSession(ctx, id, func(nav *navigator.Navigator, s *state.SessionState) error {
		if err := fn(nav, s); err != nil {
			return err
		}
		if !save {
			return nil
		}
		if err := g.storage.SaveSession(ctx, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

func (g *GameService) publish(ctx context.Context, id uuid.UUID, eventType events.EventType, data map[string]any) {
	if g.events == nil {
		return
	}
	if err := g.events.Publish(ctx, id, eventType, data); err != nil {
		g.logger.Warn("Failed to publish session event", "session_id", id, "event_type", eventType, "error", err)
	}
}
