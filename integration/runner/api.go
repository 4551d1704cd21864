package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/map-quest/internal/handlers"
	"github.com/jwebster45206/map-quest/pkg/state"
)

// do sends a request with an optional JSON body and returns the status and
// raw response body.
func (r *Runner) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// createSession starts a session for the suite's game
func (r *Runner) createSession(ctx context.Context, game, gameName string) (uuid.UUID, error) {
	status, body, err := r.do(ctx, http.MethodPost, "/v1/sessions", handlers.CreateSessionRequest{Game: game, GameName: gameName})
	if err != nil {
		return uuid.Nil, err
	}
	if status != http.StatusCreated {
		return uuid.Nil, fmt.Errorf("create session returned %d: %s", status, string(body))
	}

	var s state.SessionState
	if err := json.Unmarshal(body, &s); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode created session: %w", err)
	}
	return s.ID, nil
}

// deleteSession ends a session. A session that is already gone is fine.
func (r *Runner) deleteSession(ctx context.Context, id uuid.UUID) error {
	status, body, err := r.do(ctx, http.MethodDelete, "/v1/sessions/"+id.String(), nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("delete session returned %d: %s", status, string(body))
	}
	return nil
}
