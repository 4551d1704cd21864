package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/map-quest/internal/handlers"
	"github.com/jwebster45206/map-quest/pkg/navigator"
	"github.com/jwebster45206/map-quest/pkg/script"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays scripted sessions against a running map-quest API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	GameOverride      string // If set, overrides the game for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite plays a suite in a fresh session and deletes the session afterwards
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	game := suite.Game
	if r.GameOverride != "" {
		game = r.GameOverride
	}
	sessionID, err := r.createSession(ctx, game, suite.GameName)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = sessionID
	defer func() {
		if err := r.deleteSession(context.WithoutCancel(ctx), sessionID); err != nil {
			r.Logger("    Warning: failed to delete session %s: %v", sessionID, err)
		}
	}()

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, sessionID.String(), step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep performs one API call and checks its expectations
func (r *Runner) runStep(ctx context.Context, sessionID string, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}
	finish := func(err error) TestResult {
		result.Error = err
		result.Success = err == nil
		result.Duration = time.Since(start)
		return result
	}

	base := "/v1/sessions/" + sessionID
	var (
		method string
		path   string
		body   any
	)
	switch step.Action {
	case ActionNavigate:
		method, path = http.MethodPost, base+"/navigate"
		body = map[string]int{"prompt_index": step.PromptIndex}
	case ActionChoose:
		method, path = http.MethodPost, base+"/choices"
		body = map[string]int{"prompt_index": step.PromptIndex, "choice_index": step.ChoiceIndex}
	case ActionActions:
		method, path = http.MethodGet, base+"/actions"
	case ActionReport:
		method, path = http.MethodGet, base+"/report"
	case ActionPromptCount:
		method, path = http.MethodGet, base+"/prompt-count"
	default:
		return finish(fmt.Errorf("unknown step action %q", step.Action))
	}

	status, respBody, err := r.do(ctx, method, path, body)
	result.Status = status
	result.Body = string(respBody)
	if err != nil {
		return finish(err)
	}

	return finish(checkExpectations(step.Action, step.Expectations, status, respBody))
}

// checkExpectations validates a step's response against its expectations
func checkExpectations(action string, exp Expectations, status int, body []byte) error {
	wantStatus := http.StatusOK
	if exp.Status != nil {
		wantStatus = *exp.Status
	}
	if status != wantStatus {
		return fmt.Errorf("expected status %d, got %d: %s", wantStatus, status, strings.TrimSpace(string(body)))
	}

	if status >= 400 {
		if exp.ErrorContains == "" {
			return nil
		}
		var errResp handlers.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return fmt.Errorf("failed to decode error response: %w", err)
		}
		if !strings.Contains(strings.ToLower(errResp.Error), strings.ToLower(exp.ErrorContains)) {
			return fmt.Errorf("expected error to contain '%s', got '%s'", exp.ErrorContains, errResp.Error)
		}
		return nil
	}

	switch action {
	case ActionNavigate:
		var content script.PromptContent
		if err := json.Unmarshal(body, &content); err != nil {
			return fmt.Errorf("failed to decode prompt: %w", err)
		}
		return checkPrompt(exp, content)

	case ActionChoose:
		var resp handlers.PickChoiceResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to decode choice response: %w", err)
		}
		if exp.NextPrompt != nil && resp.NextPromptIndex.String() != *exp.NextPrompt {
			return fmt.Errorf("expected next prompt %s, got %s", *exp.NextPrompt, resp.NextPromptIndex)
		}
		if exp.GameOver != nil && resp.GameOver != *exp.GameOver {
			return fmt.Errorf("expected game_over to be %t, got %t", *exp.GameOver, resp.GameOver)
		}
		return checkActionNames(exp.ActionNames, resp.Actions)

	case ActionActions:
		var actions []script.Action
		if err := json.Unmarshal(body, &actions); err != nil {
			return fmt.Errorf("failed to decode actions: %w", err)
		}
		return checkActionNames(exp.ActionNames, actions)

	case ActionReport:
		var report navigator.Report
		if err := json.Unmarshal(body, &report); err != nil {
			return fmt.Errorf("failed to decode report: %w", err)
		}
		if exp.TotalScore != nil && report.TotalScore != *exp.TotalScore {
			return fmt.Errorf("expected total score %s, got %s", navigator.FormatPoints(*exp.TotalScore), navigator.FormatPoints(report.TotalScore))
		}
		if exp.ScoredRows != nil && len(report.Rows) != *exp.ScoredRows {
			return fmt.Errorf("expected %d scored rows, got %d", *exp.ScoredRows, len(report.Rows))
		}

	case ActionPromptCount:
		var resp handlers.PromptCountResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to decode prompt count: %w", err)
		}
		if exp.PromptCount != nil && resp.Count != *exp.PromptCount {
			return fmt.Errorf("expected prompt count %d, got %d", *exp.PromptCount, resp.Count)
		}
	}

	return nil
}

func checkPrompt(exp Expectations, content script.PromptContent) error {
	if exp.Title != nil && content.Title != *exp.Title {
		return fmt.Errorf("expected title '%s', got '%s'", *exp.Title, content.Title)
	}
	if exp.ChoiceCount != nil && len(content.Choices) != *exp.ChoiceCount {
		return fmt.Errorf("expected %d choices, got %d", *exp.ChoiceCount, len(content.Choices))
	}
	if len(exp.ContentContains) > 0 {
		raw, err := json.Marshal(content.Contents)
		if err != nil {
			return fmt.Errorf("failed to encode prompt contents: %w", err)
		}
		lower := strings.ToLower(string(raw))
		for _, want := range exp.ContentContains {
			if !strings.Contains(lower, strings.ToLower(want)) {
				return fmt.Errorf("expected prompt contents to contain '%s', but they didn't", want)
			}
		}
	}
	return nil
}

// checkActionNames compares action names in order. A nil expectation is
// skipped and an empty one requires no actions.
func checkActionNames(want []string, actions []script.Action) error {
	if want == nil {
		return nil
	}
	got := make([]string, 0, len(actions))
	for _, a := range actions {
		got = append(got, a.Name)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected actions %v, got %v", want, got)
	}
	return nil
}
