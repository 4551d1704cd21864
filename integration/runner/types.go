package runner

import (
	"time"

	"github.com/google/uuid"
)

// Step actions. Each maps to one session endpoint.
const (
	ActionNavigate    = "navigate"
	ActionChoose      = "choose"
	ActionActions     = "actions"
	ActionReport      = "report"
	ActionPromptCount = "prompt_count"
)

// TestSuite defines a complete integration test playthrough
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name     string     `json:"name"`
	Game     string     `json:"game,omitempty"`      // Used for regular tests
	GameName string     `json:"game_name,omitempty"` // Optional session display name
	Steps    []TestStep `json:"steps,omitempty"`     // Used for regular tests
	Cases    []string   `json:"cases,omitempty"`     // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single API call and its expected outcomes
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	PromptIndex  int          `json:"prompt_index,omitempty"`
	ChoiceIndex  int          `json:"choice_index,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Status defaults to 200 when unset
	Status        *int   `json:"status,omitempty"`
	ErrorContains string `json:"error_contains,omitempty"`

	// navigate
	Title           *string  `json:"title,omitempty"`
	ContentContains []string `json:"content_contains,omitempty"`
	ChoiceCount     *int     `json:"choice_count,omitempty"`

	// choose
	NextPrompt *string `json:"next_prompt,omitempty"` // prompt index, "end" or "none"
	GameOver   *bool   `json:"game_over,omitempty"`

	// choose and actions, compared in order
	ActionNames []string `json:"action_names,omitempty"`

	// report
	TotalScore *float64 `json:"total_score,omitempty"`
	ScoredRows *int     `json:"scored_rows,omitempty"`

	// prompt_count
	PromptCount *int `json:"prompt_count,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Status   int
	Body     string
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
