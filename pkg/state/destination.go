package state

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jwebster45206/map-quest/pkg/script"
)

type destinationKind uint8

const (
	destNone destinationKind = iota
	destPrompt
	destEnd
)

// Destination is where a choice leads: a prompt index, the end of the game,
// or nowhere in particular. It encodes to JSON as an integer, "end" or null.
type Destination struct {
	kind  destinationKind
	index int
}

// NoDestination is the zero Destination.
var NoDestination = Destination{}

// EndDestination finishes the game.
var EndDestination = Destination{kind: destEnd}

// PromptDestination points at an absolute prompt index.
func PromptDestination(i int) Destination {
	return Destination{kind: destPrompt, index: i}
}

// IsNone reports whether no destination is set.
func (d Destination) IsNone() bool { return d.kind == destNone }

// IsEnd reports whether the destination finishes the game.
func (d Destination) IsEnd() bool { return d.kind == destEnd }

// Prompt returns the prompt index when the destination is a prompt.
func (d Destination) Prompt() (int, bool) {
	return d.index, d.kind == destPrompt
}

// Is reports whether the destination is exactly the given prompt.
func (d Destination) Is(promptIndex int) bool {
	return d.kind == destPrompt && d.index == promptIndex
}

func (d Destination) String() string {
	switch d.kind {
	case destPrompt:
		return strconv.Itoa(d.index)
	case destEnd:
		return script.EndOfGame
	default:
		return "none"
	}
}

func (d Destination) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case destPrompt:
		return json.Marshal(d.index)
	case destEnd:
		return json.Marshal(script.EndOfGame)
	default:
		return []byte("null"), nil
	}
}

func (d *Destination) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*d = NoDestination
		return nil
	case string:
		if v != script.EndOfGame {
			return fmt.Errorf("invalid destination %q", v)
		}
		*d = EndDestination
		return nil
	}
	idx, ok := script.AsIndex(raw)
	if !ok {
		return fmt.Errorf("invalid destination %v", raw)
	}
	*d = PromptDestination(idx)
	return nil
}
