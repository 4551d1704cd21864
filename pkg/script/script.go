package script

// JumpBackMode controls what happens to recorded choices when a player
// navigates to an earlier prompt.
type JumpBackMode string

const (
	JumpBackKeep  JumpBackMode = ""      // choices stay recorded and visible
	JumpBackHide  JumpBackMode = "hide"  // choices at or after the current prompt are not replayed
	JumpBackReset JumpBackMode = "reset" // choices at or after the destination are discarded
)

// Action names that steer navigation rather than draw anything on the map.
const (
	ActionExplain = "explain"
	ActionEndGame = "endGame"
	ActionGoto    = "goto"
)

// GameScript is an immutable branching game document. A loaded script is
// shared read-only between every session playing it.
type GameScript struct {
	Name                   string       `json:"name,omitempty" yaml:"name,omitempty"` // Display name, copied to new sessions
	PromptList             []Prompt     `json:"promptList" yaml:"promptList"`
	JumpingBackAllowed     bool         `json:"jumpingBackAllowed,omitempty" yaml:"jumpingBackAllowed,omitempty"`
	JumpingForwardAllowed  bool         `json:"jumpingForwardAllowed,omitempty" yaml:"jumpingForwardAllowed,omitempty"`
	OnJumpBack             JumpBackMode `json:"onJumpBack,omitempty" yaml:"onJumpBack,omitempty"`
	ShowActionsInUserOrder bool         `json:"showActionsInUserOrder,omitempty" yaml:"showActionsInUserOrder,omitempty"`
}

// Prompt is one step of the narrative. Its index in PromptList is its identity.
type Prompt struct {
	Prompt     PromptContent   `json:"prompt" yaml:"prompt"`
	ActionList []ChoiceOutcome `json:"actionList,omitempty" yaml:"actionList,omitempty"` // Index-aligned with Prompt.Choices
}

// PromptContent is the display payload handed to clients. Apart from the
// title and the number of choices its contents are opaque here.
type PromptContent struct {
	Title    string         `json:"title" yaml:"title"`
	Contents []any          `json:"contents,omitempty" yaml:"contents,omitempty"`
	Map      map[string]any `json:"map,omitempty" yaml:"map,omitempty"`
	Choices  []any          `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// ChoiceOutcome is what selecting a choice does.
type ChoiceOutcome struct {
	Actions    []Action   `json:"actions,omitempty" yaml:"actions,omitempty"`
	PointValue *float64   `json:"pointValue,omitempty" yaml:"pointValue,omitempty"`
	NextPrompt NextPrompt `json:"nextPrompt,omitzero" yaml:"nextPrompt,omitempty"`
}

// Points returns the outcome's point value, or 0 when it has none.
func (o ChoiceOutcome) Points() float64 {
	if o.PointValue == nil {
		return 0
	}
	return *o.PointValue
}

// Action is a renderable or control-flow instruction attached to a choice.
type Action struct {
	Name     string `json:"name" yaml:"name"`
	Data     []any  `json:"data,omitempty" yaml:"data,omitempty"`
	Frontend string `json:"frontend,omitempty" yaml:"frontend,omitempty"` // Restricts the action to one map frontend
}

// IsControlFlow reports whether the action steers navigation instead of
// drawing on the map.
func (a Action) IsControlFlow() bool {
	switch a.Name {
	case ActionExplain, ActionEndGame, ActionGoto:
		return true
	}
	return false
}

// Clone returns a copy of the action whose Data slice can be modified
// without touching the script.
func (a Action) Clone() Action {
	if a.Data != nil {
		a.Data = append([]any(nil), a.Data...)
	}
	return a
}

// Outcome returns the outcome for a choice, or an empty outcome when the
// prompt's actionList does not cover it.
func (g *GameScript) Outcome(promptIndex, choiceIndex int) ChoiceOutcome {
	if promptIndex < 0 || promptIndex >= len(g.PromptList) {
		return ChoiceOutcome{}
	}
	list := g.PromptList[promptIndex].ActionList
	if choiceIndex < 0 || choiceIndex >= len(list) {
		return ChoiceOutcome{}
	}
	return list[choiceIndex]
}
