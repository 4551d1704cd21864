package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/map-quest/internal/storage"
)

const capitalsYAML = `name: Capitals
jumpingBackAllowed: true
onJumpBack: reset
promptList:
  - prompt:
      title: France
      choices: [Paris, Lyon]
    actionList:
      - actions:
          - name: marker
            data: [48.85, 2.35]
        pointValue: 2
      - pointValue: -1
  - prompt:
      title: Italy
      choices: [Rome]
    actionList:
      - actions:
          - name: endGame
        pointValue: 1
`

func setupServer(t *testing.T) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	dataDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "games"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "games", "capitals.yaml"), []byte(capitalsYAML), 0o644))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := storage.NewRedisStorage(mr.Addr(), dataDir, time.Hour, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := httptest.NewServer(newHandler(store, store.Client(), logger))
	t.Cleanup(srv.Close)
	return srv, mr
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_EndToEnd(t *testing.T) {
	srv, mr := setupServer(t)

	var health map[string]any
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "healthy", health["status"])

	var games map[string]string
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/v1/games", nil, &games))
	assert.Equal(t, map[string]string{"Capitals": "capitals.yaml"}, games)

	var session struct {
		ID       string `json:"id"`
		GameName string `json:"game_name"`
	}
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/v1/sessions", map[string]any{"game": "capitals.yaml"}, &session))
	assert.Equal(t, "Capitals", session.GameName)
	assert.True(t, mr.Exists("session:"+session.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+session.ID))

	base := "/v1/sessions/" + session.ID
	var prompt map[string]any
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/navigate", map[string]any{"prompt_index": 0}, &prompt))
	assert.Equal(t, "France", prompt["title"])

	var choice map[string]any
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/choices", map[string]any{"prompt_index": 0, "choice_index": 0}, &choice))
	assert.Equal(t, false, choice["game_over"])

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/navigate", map[string]any{"prompt_index": 1}, nil))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/choices", map[string]any{"prompt_index": 1, "choice_index": 0}, &choice))
	assert.Equal(t, true, choice["game_over"])
	assert.Equal(t, "end", choice["next_prompt_index"])

	var report struct {
		TotalScore float64 `json:"total_score"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/report", nil, &report))
	assert.Equal(t, 3.0, report.TotalScore)

	// Jumping back with onJumpBack reset drops the later answer.
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/navigate", map[string]any{"prompt_index": 0}, nil))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/report", nil, &report))
	assert.Equal(t, 0.0, report.TotalScore)

	assert.False(t, mr.Exists("session-lock:"+session.ID), "lock released after each request")

	require.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, base, nil, nil))
	assert.False(t, mr.Exists("session:"+session.ID))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, base, nil, nil))
}

func TestAPI_Metrics(t *testing.T) {
	srv, _ := setupServer(t)
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/v1/sessions", map[string]any{"game": "capitals.yaml"}, nil))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "mapquest_sessions_created_total"))
	assert.True(t, strings.Contains(string(body), `mapquest_navigator_operations_total{operation="createSession",result="ok"}`))
}
