package navigator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

func pts(v float64) *float64 { return &v }

func draw(id int) script.Action {
	return script.Action{Name: "draw", Data: []any{id}}
}

// linearScript has n prompts with two choices each. Choice 0 draws shape
// 10*p and continues to the next prompt; choice 1 draws 10*p+1.
func linearScript(n int) *script.GameScript {
	gs := &script.GameScript{}
	for p := 0; p < n; p++ {
		next := script.PromptIndex(p + 1)
		if p == n-1 {
			next = script.End()
		}
		gs.PromptList = append(gs.PromptList, script.Prompt{
			Prompt: script.PromptContent{Title: "Prompt", Choices: []any{"a", "b"}},
			ActionList: []script.ChoiceOutcome{
				{Actions: []script.Action{draw(10 * p), {Name: script.ActionExplain, Data: []any{"why"}}}, NextPrompt: next},
				{Actions: []script.Action{draw(10*p + 1)}, NextPrompt: next},
			},
		})
	}
	return gs
}

// playTo answers choice 0 on every prompt before target and lands on target.
func playTo(t *testing.T, nav *Navigator, s *state.SessionState, target int) {
	t.Helper()
	_, err := nav.GetPrompt(s, 0)
	require.NoError(t, err)
	for p := 0; p < target; p++ {
		res, err := nav.PickChoice(s, p, 0)
		require.NoError(t, err)
		next, ok := res.NextPromptIndex.Prompt()
		require.True(t, ok)
		_, err = nav.GetPrompt(s, next)
		require.NoError(t, err)
	}
}

func TestPromptCount(t *testing.T) {
	assert.Equal(t, 4, New(linearScript(4)).PromptCount())
	assert.Equal(t, 0, New(&script.GameScript{}).PromptCount())
}

func TestGetPrompt_InvalidIndex(t *testing.T) {
	nav := New(linearScript(3))
	s := state.NewSessionState("g", "")

	for _, idx := range []int{-1, 3, 100} {
		_, err := nav.GetPrompt(s, idx)
		assert.ErrorIs(t, err, ErrInvalidIndex, "index %d", idx)
	}
	assert.Equal(t, 0, s.CurrentPromptIndex)
}

func TestGetPrompt_JumpPolicy(t *testing.T) {
	tests := []struct {
		name        string
		back, fwd   bool
		from, to    int
		expectedErr error
	}{
		{"same prompt", false, false, 2, 2, nil},
		{"next prompt", false, false, 2, 3, nil},
		{"back denied", false, false, 2, 1, ErrJumpBackDenied},
		{"back allowed", true, false, 2, 0, nil},
		{"forward denied", false, false, 1, 3, ErrJumpForwardDenied},
		{"forward allowed", false, true, 0, 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := linearScript(5)
			gs.JumpingBackAllowed = tt.back
			gs.JumpingForwardAllowed = tt.fwd
			nav := New(gs)
			s := state.NewSessionState("g", "")
			s.CurrentPromptIndex = tt.from

			content, err := nav.GetPrompt(s, tt.to)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, tt.from, s.CurrentPromptIndex)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, s.CurrentPromptIndex)
			assert.Equal(t, gs.PromptList[tt.to].Prompt.Title, content.Title)
		})
	}
}

func TestGetPrompt_JumpBackDeniedLeavesStateUntouched(t *testing.T) {
	nav := New(linearScript(4))
	s := state.NewSessionState("g", "")
	playTo(t, nav, s, 3)
	before := s.Clone()

	for target := 0; target < 3; target++ {
		_, err := nav.GetPrompt(s, target)
		assert.ErrorIs(t, err, ErrJumpBackDenied)
	}
	assert.Equal(t, before, s)
}

func TestGetPrompt_AllowedDestinationOverridesPolicy(t *testing.T) {
	gs := linearScript(5)
	gs.PromptList[0].ActionList[0].NextPrompt = script.PromptIndex(4)
	gs.PromptList[4].ActionList[0].NextPrompt = script.PromptIndex(1)
	nav := New(gs)
	s := state.NewSessionState("g", "")

	res, err := nav.PickChoice(s, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, state.PromptDestination(4), res.NextPromptIndex)

	// Forward jump of 4 is fine once, then the allowance is gone.
	_, err = nav.GetPrompt(s, 4)
	require.NoError(t, err)
	assert.True(t, s.NextAllowedPromptIndex.IsNone())

	// Backward jump is allowed through the same mechanism.
	_, err = nav.PickChoice(s, 4, 0)
	require.NoError(t, err)
	_, err = nav.GetPrompt(s, 1)
	require.NoError(t, err)

	// Consumed: a second jump back to 0 is refused.
	_, err = nav.GetPrompt(s, 0)
	assert.ErrorIs(t, err, ErrJumpBackDenied)
}

func TestGetPrompt_ResetOnJumpBack(t *testing.T) {
	gs := linearScript(5)
	gs.JumpingBackAllowed = true
	gs.OnJumpBack = script.JumpBackReset
	nav := New(gs)
	s := state.NewSessionState("g", "")
	playTo(t, nav, s, 4)
	_, err := nav.PickChoice(s, 4, 1)
	require.NoError(t, err)

	_, err = nav.GetPrompt(s, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, s.AnsweredPrompts())
	for p := range s.UserChoices {
		assert.Less(t, p, 2)
	}
	assert.Equal(t, []int{0, 1}, s.UserChoiceOrder)
}

func TestGetPrompt_RevisitClearsChoice(t *testing.T) {
	gs := linearScript(4)
	gs.JumpingBackAllowed = true
	nav := New(gs)
	s := state.NewSessionState("g", "")
	playTo(t, nav, s, 3)
	assert.Equal(t, []int{0, 1, 2}, s.AnsweredPrompts())

	_, err := nav.GetPrompt(s, 1)
	require.NoError(t, err)

	_, ok := s.Choice(1)
	assert.False(t, ok)
	assert.Equal(t, []int{0, 2}, s.UserChoiceOrder)
	assert.Equal(t, []script.Action{draw(0), draw(20)}, nav.PreviousMapActions(s))
}

func TestPickChoice_WrongPrompt(t *testing.T) {
	nav := New(linearScript(3))
	s := state.NewSessionState("g", "")

	_, err := nav.PickChoice(s, 1, 0)
	assert.ErrorIs(t, err, ErrWrongPrompt)
	assert.Empty(t, s.UserChoices)
	assert.True(t, s.NextAllowedPromptIndex.IsNone())
}

func TestPickChoice_NegativeChoice(t *testing.T) {
	nav := New(linearScript(3))
	s := state.NewSessionState("g", "")

	_, err := nav.PickChoice(s, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	assert.Empty(t, s.UserChoices)
}

func TestPickChoice_RecordsOrder(t *testing.T) {
	gs := linearScript(3)
	gs.JumpingBackAllowed = true
	nav := New(gs)
	s := state.NewSessionState("g", "")
	playTo(t, nav, s, 2)
	_, err := nav.PickChoice(s, 2, 0)
	require.NoError(t, err)

	_, err = nav.GetPrompt(s, 0)
	require.NoError(t, err)
	_, err = nav.PickChoice(s, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 0}, s.UserChoiceOrder)
	c, _ := s.Choice(0)
	assert.Equal(t, 1, c)
}

func TestPickChoice_Destinations(t *testing.T) {
	explain := script.Action{Name: script.ActionExplain, Data: []any{"Nice."}}

	tests := []struct {
		name            string
		outcome         script.ChoiceOutcome
		expectedNext    state.Destination
		expectedActions []script.Action
	}{
		{
			name:            "integer nextPrompt",
			outcome:         script.ChoiceOutcome{Actions: []script.Action{draw(1)}, NextPrompt: script.PromptIndex(2)},
			expectedNext:    state.PromptDestination(2),
			expectedActions: []script.Action{draw(1)},
		},
		{
			name:            "end nextPrompt",
			outcome:         script.ChoiceOutcome{NextPrompt: script.End()},
			expectedNext:    state.EndDestination,
			expectedActions: []script.Action{},
		},
		{
			name:            "lone endGame action is stripped",
			outcome:         script.ChoiceOutcome{Actions: []script.Action{{Name: script.ActionEndGame}}},
			expectedNext:    state.EndDestination,
			expectedActions: []script.Action{},
		},
		{
			name:            "endGame alongside other actions is left alone",
			outcome:         script.ChoiceOutcome{Actions: []script.Action{{Name: script.ActionEndGame}, explain}},
			expectedNext:    state.NoDestination,
			expectedActions: []script.Action{{Name: script.ActionEndGame}, explain},
		},
		{
			name:            "goto supplies destination and is stripped",
			outcome:         script.ChoiceOutcome{Actions: []script.Action{{Name: script.ActionGoto, Data: []any{2}}, explain}},
			expectedNext:    state.PromptDestination(2),
			expectedActions: []script.Action{explain},
		},
		{
			name:            "goto with json number",
			outcome:         script.ChoiceOutcome{Actions: []script.Action{{Name: script.ActionGoto, Data: []any{3.0}}}},
			expectedNext:    state.PromptDestination(3),
			expectedActions: []script.Action{},
		},
		{
			// Several gotos: the last one with data wins and all are stripped.
			name: "multiple gotos",
			outcome: script.ChoiceOutcome{Actions: []script.Action{
				{Name: script.ActionGoto, Data: []any{1}},
				draw(5),
				{Name: script.ActionGoto, Data: []any{3}},
				{Name: script.ActionGoto},
			}},
			expectedNext:    state.PromptDestination(3),
			expectedActions: []script.Action{draw(5)},
		},
		{
			name:            "goto without data",
			outcome:         script.ChoiceOutcome{Actions: []script.Action{{Name: script.ActionGoto}, draw(7)}},
			expectedNext:    state.NoDestination,
			expectedActions: []script.Action{draw(7)},
		},
		{
			name:            "nextPrompt wins over goto",
			outcome:         script.ChoiceOutcome{Actions: []script.Action{{Name: script.ActionGoto, Data: []any{1}}}, NextPrompt: script.PromptIndex(3)},
			expectedNext:    state.PromptDestination(3),
			expectedActions: []script.Action{{Name: script.ActionGoto, Data: []any{1}}},
		},
		{
			name:            "no destination",
			outcome:         script.ChoiceOutcome{Actions: []script.Action{draw(9)}},
			expectedNext:    state.NoDestination,
			expectedActions: []script.Action{draw(9)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := linearScript(4)
			gs.PromptList[0].ActionList[0] = tt.outcome
			nav := New(gs)
			s := state.NewSessionState("g", "")

			res, err := nav.PickChoice(s, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedNext, res.NextPromptIndex)
			assert.Equal(t, tt.expectedActions, res.Actions)
			assert.Equal(t, tt.expectedNext, s.NextAllowedPromptIndex)
		})
	}
}

func TestPickChoice_ActionsAreCopies(t *testing.T) {
	gs := linearScript(2)
	gs.PromptList[0].ActionList[0].Actions = []script.Action{{Name: script.ActionGoto, Data: []any{1}}, draw(1)}
	nav := New(gs)
	s := state.NewSessionState("g", "")

	res, err := nav.PickChoice(s, 0, 0)
	require.NoError(t, err)
	res.Actions[0].Data[0] = 42

	assert.Len(t, gs.PromptList[0].ActionList[0].Actions, 2)
	assert.Equal(t, 1, gs.PromptList[0].ActionList[0].Actions[0].Data[0])
}

func TestPickChoice_MissingOutcome(t *testing.T) {
	gs := linearScript(2)
	gs.PromptList[0].Prompt.Choices = []any{"a", "b", "c"}
	nav := New(gs)
	s := state.NewSessionState("g", "")

	res, err := nav.PickChoice(s, 0, 2)
	require.NoError(t, err)
	assert.True(t, res.NextPromptIndex.IsNone())
	assert.Empty(t, res.Actions)
	c, ok := s.Choice(0)
	assert.True(t, ok)
	assert.Equal(t, 2, c)
}

func TestPickChoice_ConditionalNotImplemented(t *testing.T) {
	gs := linearScript(2)
	gs.PromptList[0].ActionList[0].NextPrompt = script.NextPrompt{
		Kind:      script.NextConditional,
		Condition: map[string]any{"if": "score > 1"},
	}
	nav := New(gs)
	s := state.NewSessionState("g", "")

	_, err := nav.PickChoice(s, 0, 0)
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Empty(t, s.UserChoices)
	assert.True(t, s.NextAllowedPromptIndex.IsNone())
}

func TestScenario_JumpBackDeniedAfterAdvance(t *testing.T) {
	gs := linearScript(3)
	nav := New(gs)
	s := state.NewSessionState("g", "")

	res, err := nav.PickChoice(s, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, state.PromptDestination(1), res.NextPromptIndex)
	assert.Equal(t, []script.Action{draw(0), {Name: script.ActionExplain, Data: []any{"why"}}}, res.Actions)

	content, err := nav.GetPrompt(s, 1)
	require.NoError(t, err)
	assert.Equal(t, gs.PromptList[1].Prompt, content)

	_, err = nav.GetPrompt(s, 0)
	assert.ErrorIs(t, err, ErrJumpBackDenied)
}

func TestPreviousMapActions(t *testing.T) {
	t.Run("ascending order skips control flow", func(t *testing.T) {
		nav := New(linearScript(4))
		s := state.NewSessionState("g", "")
		playTo(t, nav, s, 3)

		assert.Equal(t, []script.Action{draw(0), draw(10), draw(20)}, nav.PreviousMapActions(s))
	})

	t.Run("empty session", func(t *testing.T) {
		nav := New(linearScript(2))
		actions := nav.PreviousMapActions(state.NewSessionState("g", ""))
		assert.NotNil(t, actions)
		assert.Empty(t, actions)
	})

	t.Run("user order", func(t *testing.T) {
		gs := linearScript(4)
		gs.ShowActionsInUserOrder = true
		nav := New(gs)
		s := state.NewSessionState("g", "")
		s.RecordChoice(2, 1)
		s.RecordChoice(0, 0)
		s.RecordChoice(1, 1)
		s.CurrentPromptIndex = 3

		assert.Equal(t, []script.Action{draw(21), draw(0), draw(11)}, nav.PreviousMapActions(s))
	})

	t.Run("hide skips prompts at or after current", func(t *testing.T) {
		gs := linearScript(4)
		gs.OnJumpBack = script.JumpBackHide
		nav := New(gs)
		s := state.NewSessionState("g", "")
		s.RecordChoice(0, 0)
		s.RecordChoice(1, 0)
		s.RecordChoice(2, 1)
		s.CurrentPromptIndex = 1

		assert.Equal(t, []script.Action{draw(0)}, nav.PreviousMapActions(s))
	})

	t.Run("keep shows prompts after current", func(t *testing.T) {
		nav := New(linearScript(4))
		s := state.NewSessionState("g", "")
		s.RecordChoice(0, 0)
		s.RecordChoice(2, 1)
		s.CurrentPromptIndex = 1

		assert.Equal(t, []script.Action{draw(0), draw(21)}, nav.PreviousMapActions(s))
	})
}

func TestPreviousMapActions_ReturnsCopies(t *testing.T) {
	gs := linearScript(2)
	nav := New(gs)
	s := state.NewSessionState("g", "")
	s.RecordChoice(0, 0)
	s.CurrentPromptIndex = 1

	actions := nav.PreviousMapActions(s)
	require.Len(t, actions, 1)
	actions[0].Data[0] = "changed"
	assert.Equal(t, 0, gs.PromptList[0].ActionList[0].Actions[0].Data[0])
}

func TestGameOverReport(t *testing.T) {
	gs := &script.GameScript{PromptList: []script.Prompt{
		{
			Prompt: script.PromptContent{Title: "Rivers & <Lakes>"},
			ActionList: []script.ChoiceOutcome{
				{PointValue: pts(5)},
				{PointValue: pts(2)},
				{PointValue: pts(-3)},
			},
		},
		{
			// No scoring in play: left out of the breakdown.
			Prompt:     script.PromptContent{Title: "Intro"},
			ActionList: []script.ChoiceOutcome{{}, {PointValue: pts(0)}},
		},
		{
			// No outcomes at all.
			Prompt: script.PromptContent{Title: "Map only"},
		},
		{
			Prompt:     script.PromptContent{Title: `Say "hi"`},
			ActionList: []script.ChoiceOutcome{{PointValue: pts(-1)}, {}},
		},
		{
			Prompt:     script.PromptContent{Title: "Unanswered"},
			ActionList: []script.ChoiceOutcome{{PointValue: pts(4)}},
		},
	}}
	nav := New(gs)
	s := state.NewSessionState("g", "River Survey")
	s.RecordChoice(0, 1)
	s.RecordChoice(1, 0)
	s.RecordChoice(3, 0)

	r := nav.GameOverReport(s)

	assert.Equal(t, "River Survey", r.GameName)
	assert.Equal(t, 1.0, r.TotalScore)
	assert.Equal(t, []ScoreRow{
		{Prompt: 1, Title: "Rivers & <Lakes>", Score: 2, Best: 5, Worst: -3},
		{Prompt: 4, Title: `Say "hi"`, Score: -1, Best: 0, Worst: -1},
		{Prompt: 5, Title: "Unanswered", Score: 0, Best: 4, Worst: 0},
	}, r.Rows)

	require.Len(t, r.Messages, 4)
	assert.Equal(t, Message{Type: MessageHeading, Value: "Game Over"}, r.Messages[0])
	assert.Equal(t, Message{Type: MessageText, Value: "You have completed River Survey."}, r.Messages[1])
	assert.Equal(t, Message{Type: MessageText, Value: "Your total score is 1."}, r.Messages[2])
	assert.Equal(t, MessageHTML, r.Messages[3].Type)
	assert.Contains(t, r.Messages[3].Value, "<td>1. Rivers &amp; &lt;Lakes&gt;</td><td>2</td><td>5</td>")
	assert.Contains(t, r.Messages[3].Value, "<td>4. Say &#34;hi&#34;</td><td>-1</td><td>0</td>")
	assert.NotContains(t, r.Messages[3].Value, "Intro")

	assert.Equal(t, r.Messages, nav.GameOverContent(s))
}

func TestGameOverReport_Unscored(t *testing.T) {
	nav := New(linearScript(3))
	s := state.NewSessionState("g", "")
	playTo(t, nav, s, 2)

	r := nav.GameOverReport(s)
	assert.False(t, r.Scored())
	assert.Equal(t, 0.0, r.TotalScore)
	assert.Equal(t, []Message{
		{Type: MessageHeading, Value: "Game Over"},
		{Type: MessageText, Value: "You have completed this game."},
	}, r.Messages)
}

func TestGameOverReport_TotalIsSumOfChosenPoints(t *testing.T) {
	gs := linearScript(5)
	for p := range gs.PromptList {
		gs.PromptList[p].ActionList[0].PointValue = pts(float64(p))
		gs.PromptList[p].ActionList[1].PointValue = pts(-0.5)
	}
	nav := New(gs)
	s := state.NewSessionState("g", "")
	choices := map[int]int{0: 0, 1: 1, 3: 0, 4: 1}
	var want float64
	for p, c := range choices {
		s.RecordChoice(p, c)
		want += gs.Outcome(p, c).Points()
	}

	assert.Equal(t, want, nav.GameOverReport(s).TotalScore)
}
