package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionCreated EventType = "session.created"
	EventTypePromptEntered  EventType = "prompt.entered"
	EventTypeChoicePicked   EventType = "choice.picked"
	EventTypeGameOver       EventType = "game.over"
	EventTypeSessionDeleted EventType = "session.deleted"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher is what the game service needs from a broadcaster
type Publisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, eventType EventType, data map[string]any) error
}

// Channel returns the Redis pub/sub channel for a session
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish sends an event to the session-specific channel
func (b *Broadcaster) Publish(ctx context.Context, sessionID uuid.UUID, eventType EventType, data map[string]any) error {
	channel := Channel(sessionID)
	event := Event{
		Type:      eventType,
		SessionID: sessionID.String(),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", eventType)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published", "channel", channel, "event_type", eventType)
	return nil
}

// PromptEnteredData is the payload for prompt.entered
func PromptEnteredData(promptIndex int, title string) map[string]any {
	return map[string]any{
		"prompt_index": promptIndex,
		"title":        title,
	}
}

// ChoicePickedData is the payload for choice.picked. Actions are forwarded
// to the map frontend as-is.
func ChoicePickedData(promptIndex, choiceIndex int, next state.Destination, actions []script.Action) map[string]any {
	return map[string]any{
		"prompt_index":      promptIndex,
		"choice_index":      choiceIndex,
		"next_prompt_index": next,
		"actions":           actions,
	}
}
