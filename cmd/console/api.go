package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/map-quest/pkg/navigator"
	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ChoiceResponse mirrors the API's pick-choice response
type ChoiceResponse struct {
	NextPromptIndex state.Destination `json:"next_prompt_index"`
	Actions         []script.Action   `json:"actions"`
	GameOver        bool              `json:"game_over"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// doJSON sends a request with an optional JSON body and decodes a JSON
// response into out when the status matches want.
func doJSON(client *http.Client, method, url string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func listGames(client *http.Client, baseURL string) ([]string, map[string]string, error) {
	var gameMap map[string]string
	if err := doJSON(client, http.MethodGet, baseURL+"/v1/games", nil, http.StatusOK, &gameMap); err != nil {
		return nil, nil, err
	}

	var names []string
	for name := range gameMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, gameMap, nil
}

func createSession(client *http.Client, baseURL, gameFile string) (*state.SessionState, error) {
	var s state.SessionState
	req := map[string]string{"game": gameFile}
	if err := doJSON(client, http.MethodPost, baseURL+"/v1/sessions", req, http.StatusCreated, &s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

func getPromptCount(client *http.Client, baseURL string, id uuid.UUID) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := doJSON(client, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/prompt-count", baseURL, id), nil, http.StatusOK, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func navigate(client *http.Client, baseURL string, id uuid.UUID, promptIndex int) (*script.PromptContent, error) {
	var content script.PromptContent
	req := map[string]int{"prompt_index": promptIndex}
	if err := doJSON(client, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/navigate", baseURL, id), req, http.StatusOK, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

func pickChoice(client *http.Client, baseURL string, id uuid.UUID, promptIndex, choiceIndex int) (*ChoiceResponse, error) {
	var resp ChoiceResponse
	req := map[string]int{"prompt_index": promptIndex, "choice_index": choiceIndex}
	if err := doJSON(client, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/choices", baseURL, id), req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func previousActions(client *http.Client, baseURL string, id uuid.UUID) ([]script.Action, error) {
	var actions []script.Action
	if err := doJSON(client, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/actions", baseURL, id), nil, http.StatusOK, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func getReport(client *http.Client, baseURL string, id uuid.UUID) (*navigator.Report, error) {
	var r navigator.Report
	if err := doJSON(client, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s/report", baseURL, id), nil, http.StatusOK, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// listenToSSE connects to the SSE endpoint and streams events to a channel
func listenToSSE(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/events/sessions/%s", baseURL, sessionID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent SSEEvent

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if currentEvent.Type != "" {
				select {
				case eventChan <- currentEvent:
				case <-ctx.Done():
					return ctx.Err()
				}
				currentEvent = SSEEvent{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			currentEvent.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			var data map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err == nil {
				currentEvent.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
