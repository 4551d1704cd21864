package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

func TestBroadcaster_Publish(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	b := NewBroadcaster(client, logger)

	ctx := context.Background()
	sessionID := uuid.New()

	sub := client.Subscribe(ctx, Channel(sessionID))
	defer func() { _ = sub.Close() }()
	_, err = sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	data := ChoicePickedData(0, 1, state.PromptDestination(2), []script.Action{{Name: "draw", Data: []any{1}}})
	require.NoError(t, b.Publish(ctx, sessionID, EventTypeChoicePicked, data))

	select {
	case msg := <-sub.Channel():
		var event Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, EventTypeChoicePicked, event.Type)
		assert.Equal(t, sessionID.String(), event.SessionID)
		assert.Equal(t, 2.0, event.Data["next_prompt_index"])
		assert.Equal(t, 1.0, event.Data["choice_index"])
		actions, ok := event.Data["actions"].([]any)
		require.True(t, ok)
		assert.Len(t, actions, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c2f2e-8d0a-4a3e-9a55-0c9b3c1d2e4f")
	assert.Equal(t, "session-events:6f1c2f2e-8d0a-4a3e-9a55-0c9b3c1d2e4f", Channel(id))
}

func TestPromptEnteredData(t *testing.T) {
	assert.Equal(t, map[string]any{"prompt_index": 3, "title": "Delta"}, PromptEnteredData(3, "Delta"))
}
