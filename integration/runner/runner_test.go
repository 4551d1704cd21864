package runner

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/map-quest/internal/handlers"
	"github.com/jwebster45206/map-quest/internal/services"
	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/storage"
)

const casesDir = "../cases"

// startAPI serves the session routes over the bundled game scripts.
func startAPI(t *testing.T) (*httptest.Server, *storage.MockStorage) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store := storage.NewMockStorage()
	for _, file := range []string{"world_capitals.json", "river_deltas.yaml"} {
		gs, err := script.Load(filepath.Join("..", "..", "data", "games", file))
		require.NoError(t, err)
		store.AddGame(file, gs)
	}

	sessions := handlers.NewSessionsHandler(services.NewGameService(store, nil, logger), logger)
	mux := http.NewServeMux()
	mux.Handle("/v1/sessions", sessions)
	mux.Handle("/v1/sessions/", sessions)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, "all.json"), casesDir)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	for _, job := range jobs {
		assert.False(t, job.Suite.IsSequence())
		assert.NotEmpty(t, job.Suite.Steps, job.Name)
	}

	_, err = LoadTestSuiteWithExpansion(filepath.Join(casesDir, "absent.json"), casesDir)
	assert.Error(t, err)
}

func TestRunner_Cases(t *testing.T) {
	server, store := startAPI(t)
	r := NewRunner(server.URL + "/")
	r.Logger = t.Logf

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, "all.json"), casesDir)
	require.NoError(t, err)

	for _, job := range jobs {
		t.Run(job.Name, func(t *testing.T) {
			result, err := r.RunSuite(context.Background(), job.Suite)
			require.NoError(t, err)
			assert.Len(t, result.Results, len(job.Suite.Steps))
			for _, step := range result.Results {
				assert.True(t, step.Success, "%s: %v", step.StepName, step.Error)
			}
		})
	}

	assert.Equal(t, 0, store.SessionCount(), "sessions are deleted after each suite")
}

func TestRunner_FailingExpectations(t *testing.T) {
	server, _ := startAPI(t)
	title := "Wrong title"
	count := 9

	suite := TestSuite{
		Name: "failures",
		Game: "world_capitals.json",
		Steps: []TestStep{
			{Name: "bad title", Action: ActionNavigate, Expectations: Expectations{Title: &title}},
			{Name: "bad count", Action: ActionPromptCount, Expectations: Expectations{PromptCount: &count}},
			{Name: "unknown", Action: "teleport"},
		},
	}

	t.Run("continue", func(t *testing.T) {
		r := NewRunner(server.URL)
		result, err := r.RunSuite(context.Background(), suite)
		assert.Error(t, err)
		require.Len(t, result.Results, 3)
		for _, step := range result.Results {
			assert.False(t, step.Success, step.StepName)
		}
	})

	t.Run("exit", func(t *testing.T) {
		r := NewRunner(server.URL)
		r.ErrorHandlingMode = ErrorHandlingExit
		result, err := r.RunSuite(context.Background(), suite)
		assert.Error(t, err)
		assert.Len(t, result.Results, 1)
	})
}

func TestRunner_UnknownGame(t *testing.T) {
	server, _ := startAPI(t)
	r := NewRunner(server.URL)
	r.GameOverride = "missing.json"

	_, err := r.RunSuite(context.Background(), TestSuite{Name: "override", Game: "world_capitals.json"})
	assert.ErrorContains(t, err, "failed to create session")
}

func TestCheckActionNames(t *testing.T) {
	actions := []script.Action{{Name: "highlight"}, {Name: "zoom"}}

	assert.NoError(t, checkActionNames(nil, actions))
	assert.NoError(t, checkActionNames([]string{"highlight", "zoom"}, actions))
	assert.Error(t, checkActionNames([]string{"zoom", "highlight"}, actions))
	assert.Error(t, checkActionNames([]string{}, actions))
	assert.NoError(t, checkActionNames([]string{}, nil))
}
