package script

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// EndOfGame is the literal nextPrompt value that finishes a game.
const EndOfGame = "end"

// NextPromptKind says which form a nextPrompt value took.
type NextPromptKind int

const (
	NextNone        NextPromptKind = iota // absent or null
	NextIndex                             // absolute prompt index
	NextEnd                               // the literal "end"
	NextConditional                       // conditional-expression object
)

// NextPrompt is the destination attached to a choice outcome. In a script it
// may be a non-negative integer, the string "end", or an object describing a
// conditional jump.
type NextPrompt struct {
	Kind      NextPromptKind
	Index     int
	Condition map[string]any
}

// PromptIndex builds a NextPrompt pointing at an absolute prompt index.
func PromptIndex(i int) NextPrompt {
	return NextPrompt{Kind: NextIndex, Index: i}
}

// End builds a NextPrompt that finishes the game.
func End() NextPrompt {
	return NextPrompt{Kind: NextEnd}
}

// IsZero reports whether no destination is set.
func (n NextPrompt) IsZero() bool {
	return n.Kind == NextNone
}

func (n NextPrompt) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case NextIndex:
		return json.Marshal(n.Index)
	case NextEnd:
		return json.Marshal(EndOfGame)
	case NextConditional:
		return json.Marshal(n.Condition)
	default:
		return []byte("null"), nil
	}
}

func (n *NextPrompt) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return n.set(raw)
}

func (n *NextPrompt) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return n.set(raw)
}

func (n *NextPrompt) set(raw any) error {
	*n = NextPrompt{}
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if v != EndOfGame {
			return fmt.Errorf("invalid nextPrompt %q: only %q is allowed as a string", v, EndOfGame)
		}
		n.Kind = NextEnd
		return nil
	case map[string]any:
		n.Kind = NextConditional
		n.Condition = v
		return nil
	}
	idx, ok := AsIndex(raw)
	if !ok {
		return fmt.Errorf("invalid nextPrompt %v: expected a non-negative integer, %q or an object", raw, EndOfGame)
	}
	n.Kind = NextIndex
	n.Index = idx
	return nil
}

// AsIndex converts a decoded JSON or YAML value to a prompt index. It accepts
// only non-negative integral numbers.
func AsIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 0
	case int64:
		return int(n), n >= 0
	case uint64:
		return int(n), n <= math.MaxInt32
	case float64:
		if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), i >= 0
	}
	return 0, false
}
