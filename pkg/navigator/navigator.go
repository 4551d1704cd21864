// Package navigator decides which prompt a player may see next, what a
// choice does, and how a finished game is scored. It is a pure state
// machine over a shared *script.GameScript and one *state.SessionState per
// player; callers must serialize calls that share a SessionState.
package navigator

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

// Navigator applies a game script's rules to session state.
type Navigator struct {
	script *script.GameScript
}

// ChoiceResult is the outcome of picking a choice.
type ChoiceResult struct {
	NextPromptIndex state.Destination `json:"next_prompt_index"`
	Actions         []script.Action   `json:"actions"` // Owned by the caller
}

// New returns a Navigator for a loaded script.
func New(gs *script.GameScript) *Navigator {
	return &Navigator{script: gs}
}

// PromptCount returns the number of prompts in the script.
func (n *Navigator) PromptCount() int {
	return len(n.script.PromptList)
}

// PreviousMapActions collects the map actions of every answered prompt so a
// frontend can redraw them, for example after a jump backwards.
func (n *Navigator) PreviousMapActions(s *state.SessionState) []script.Action {
	order := s.AnsweredPrompts()
	if n.script.ShowActionsInUserOrder {
		order = s.UserChoiceOrder
	}

	actions := make([]script.Action, 0)
	for _, p := range order {
		choice, ok := s.Choice(p)
		if !ok {
			continue
		}
		if p >= s.CurrentPromptIndex && n.script.OnJumpBack == script.JumpBackHide {
			continue
		}
		for _, a := range n.script.Outcome(p, choice).Actions {
			if a.IsControlFlow() {
				continue
			}
			actions = append(actions, a.Clone())
		}
	}
	return actions
}

// GetPrompt moves the session to promptIndex and returns its display
// payload. The returned content is shared with the script and must not be
// modified.
func (n *Navigator) GetPrompt(s *state.SessionState, promptIndex int) (script.PromptContent, error) {
	if promptIndex < 0 || promptIndex >= len(n.script.PromptList) {
		return script.PromptContent{}, fmt.Errorf("prompt %d: %w", promptIndex, ErrInvalidIndex)
	}

	switch {
	case s.NextAllowedPromptIndex.Is(promptIndex):
		s.NextAllowedPromptIndex = state.NoDestination
	case promptIndex < s.CurrentPromptIndex:
		if !n.script.JumpingBackAllowed {
			return script.PromptContent{}, ErrJumpBackDenied
		}
	case promptIndex > s.CurrentPromptIndex+1:
		if !n.script.JumpingForwardAllowed {
			return script.PromptContent{}, ErrJumpForwardDenied
		}
	}

	if promptIndex < s.CurrentPromptIndex && n.script.OnJumpBack == script.JumpBackReset {
		s.TruncateChoices(promptIndex)
	}

	s.CurrentPromptIndex = promptIndex
	s.ClearChoice(promptIndex)
	return n.script.PromptList[promptIndex].Prompt, nil
}

// PickChoice records a choice for the current prompt and works out where it
// leads. The destination becomes the session's one allowed jump target.
func (n *Navigator) PickChoice(s *state.SessionState, promptIndex, choiceIndex int) (ChoiceResult, error) {
	if promptIndex != s.CurrentPromptIndex {
		return ChoiceResult{}, fmt.Errorf("prompt %d, current prompt is %d: %w", promptIndex, s.CurrentPromptIndex, ErrWrongPrompt)
	}
	if choiceIndex < 0 {
		return ChoiceResult{}, fmt.Errorf("choice %d: %w", choiceIndex, ErrInvalidIndex)
	}

	outcome := n.script.Outcome(promptIndex, choiceIndex)
	if outcome.NextPrompt.Kind == script.NextConditional {
		return ChoiceResult{}, ErrNotImplemented
	}

	s.RecordChoice(promptIndex, choiceIndex)

	actions := make([]script.Action, 0, len(outcome.Actions))
	for _, a := range outcome.Actions {
		actions = append(actions, a.Clone())
	}

	next := state.NoDestination
	switch {
	case outcome.NextPrompt.Kind == script.NextIndex:
		next = state.PromptDestination(outcome.NextPrompt.Index)
	case outcome.NextPrompt.Kind == script.NextEnd:
		next = state.EndDestination
	case len(actions) == 1 && actions[0].Name == script.ActionEndGame:
		actions = actions[:0]
		next = state.EndDestination
	default:
		next, actions = takeGoto(actions)
	}

	s.NextAllowedPromptIndex = next
	return ChoiceResult{NextPromptIndex: next, Actions: actions}, nil
}

// takeGoto strips every goto action. Scanning from the end, the first goto
// carrying data supplies the destination.
func takeGoto(actions []script.Action) (state.Destination, []script.Action) {
	next := state.NoDestination
	found := false
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].Name != script.ActionGoto {
			continue
		}
		if !found && len(actions[i].Data) > 0 {
			next = destinationFromData(actions[i].Data[0])
			found = true
		}
		actions = slices.Delete(actions, i, i+1)
	}
	return next, actions
}

func destinationFromData(v any) state.Destination {
	if s, ok := v.(string); ok && s == script.EndOfGame {
		return state.EndDestination
	}
	if idx, ok := script.AsIndex(v); ok {
		return state.PromptDestination(idx)
	}
	return state.NoDestination
}
