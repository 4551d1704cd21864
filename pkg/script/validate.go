package script

import "fmt"

// Issue is a problem found while validating a script.
type Issue struct {
	Prompt  int  // -1 for script-level issues
	Choice  int  // -1 when not tied to a choice
	Warning bool // Warnings do not make a script unplayable
	Message string
}

func (i Issue) String() string {
	level := "error"
	if i.Warning {
		level = "warning"
	}
	switch {
	case i.Prompt < 0:
		return fmt.Sprintf("%s: %s", level, i.Message)
	case i.Choice < 0:
		return fmt.Sprintf("%s: prompt %d: %s", level, i.Prompt, i.Message)
	default:
		return fmt.Sprintf("%s: prompt %d choice %d: %s", level, i.Prompt, i.Choice, i.Message)
	}
}

// Validate checks a script for destinations that cannot be reached and
// settings the navigator does not understand.
func (g *GameScript) Validate() []Issue {
	var issues []Issue
	add := func(p, c int, warn bool, format string, args ...any) {
		issues = append(issues, Issue{Prompt: p, Choice: c, Warning: warn, Message: fmt.Sprintf(format, args...)})
	}

	if len(g.PromptList) == 0 {
		add(-1, -1, false, "promptList is empty")
	}
	switch g.OnJumpBack {
	case JumpBackKeep, JumpBackHide, JumpBackReset:
	default:
		add(-1, -1, false, "unknown onJumpBack %q (expected %q or %q)", g.OnJumpBack, JumpBackHide, JumpBackReset)
	}

	for p, prompt := range g.PromptList {
		if prompt.Prompt.Title == "" {
			add(p, -1, true, "prompt has no title")
		}
		if len(prompt.ActionList) > len(prompt.Prompt.Choices) {
			add(p, -1, true, "actionList has %d entries but only %d choices", len(prompt.ActionList), len(prompt.Prompt.Choices))
		}
		for c, outcome := range prompt.ActionList {
			switch outcome.NextPrompt.Kind {
			case NextIndex:
				if outcome.NextPrompt.Index >= len(g.PromptList) {
					add(p, c, false, "nextPrompt %d is out of range", outcome.NextPrompt.Index)
				}
			case NextConditional:
				add(p, c, true, "conditional nextPrompt must be resolved before play")
			}

			gotos, endGames := 0, 0
			for _, a := range outcome.Actions {
				switch a.Name {
				case "":
					add(p, c, false, "action has no name")
				case ActionEndGame:
					endGames++
				case ActionGoto:
					gotos++
					if len(a.Data) == 0 {
						continue
					}
					if idx, ok := AsIndex(a.Data[0]); ok && idx >= len(g.PromptList) {
						add(p, c, false, "goto %d is out of range", idx)
					}
				}
			}
			if gotos > 1 {
				add(p, c, true, "%d goto actions; only the last one with data is used", gotos)
			}
			if endGames > 0 && (gotos > 0 || !outcome.NextPrompt.IsZero()) {
				add(p, c, true, "endGame combined with another destination")
			}
		}
	}
	return issues
}

// HasErrors reports whether any issue is not a warning.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if !i.Warning {
			return true
		}
	}
	return false
}
