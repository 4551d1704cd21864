package state

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SessionState is one player's progress through a game script. It is owned
// by a single session and is not safe for concurrent use.
type SessionState struct {
	ID                     uuid.UUID   `json:"id"`
	Game                   string      `json:"game"`                // Game script file
	GameName               string      `json:"game_name,omitempty"` // Display name used in the final report
	CurrentPromptIndex     int         `json:"current_prompt_index"`
	NextAllowedPromptIndex Destination `json:"next_allowed_prompt_index"` // Consumed by the next navigation that uses it
	UserChoices            map[int]int `json:"user_choices"`              // prompt index -> choice index
	UserChoiceOrder        []int       `json:"user_choice_order"`         // prompt indices, most recently chosen last
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// NewSessionState returns a session positioned at the first prompt with no
// recorded choices.
func NewSessionState(game, gameName string) *SessionState {
	now := time.Now()
	return &SessionState{
		ID:              uuid.New(),
		Game:            game,
		GameName:        gameName,
		UserChoices:     make(map[int]int),
		UserChoiceOrder: make([]int, 0),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Choice returns the recorded choice for a prompt.
func (s *SessionState) Choice(promptIndex int) (int, bool) {
	c, ok := s.UserChoices[promptIndex]
	return c, ok
}

// RecordChoice stores a choice and moves the prompt to the end of the
// choice order.
func (s *SessionState) RecordChoice(promptIndex, choiceIndex int) {
	if s.UserChoices == nil {
		s.UserChoices = make(map[int]int)
	}
	s.UserChoices[promptIndex] = choiceIndex
	s.removeFromOrder(promptIndex)
	s.UserChoiceOrder = append(s.UserChoiceOrder, promptIndex)
}

// ClearChoice forgets the recorded choice for a prompt, if any.
func (s *SessionState) ClearChoice(promptIndex int) {
	delete(s.UserChoices, promptIndex)
	s.removeFromOrder(promptIndex)
}

// TruncateChoices forgets every recorded choice at or after promptIndex.
func (s *SessionState) TruncateChoices(promptIndex int) {
	for p := range s.UserChoices {
		if p >= promptIndex {
			delete(s.UserChoices, p)
		}
	}
	s.UserChoiceOrder = slices.DeleteFunc(s.UserChoiceOrder, func(p int) bool {
		return p >= promptIndex
	})
}

// AnsweredPrompts returns the prompts with a recorded choice in ascending order.
func (s *SessionState) AnsweredPrompts() []int {
	prompts := make([]int, 0, len(s.UserChoices))
	for p := range s.UserChoices {
		prompts = append(prompts, p)
	}
	slices.Sort(prompts)
	return prompts
}

func (s *SessionState) removeFromOrder(promptIndex int) {
	s.UserChoiceOrder = slices.DeleteFunc(s.UserChoiceOrder, func(p int) bool {
		return p == promptIndex
	})
}

// Clone returns a deep copy of the session.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	c := *s
	c.UserChoices = make(map[int]int, len(s.UserChoices))
	for k, v := range s.UserChoices {
		c.UserChoices[k] = v
	}
	c.UserChoiceOrder = slices.Clone(s.UserChoiceOrder)
	if c.UserChoiceOrder == nil {
		c.UserChoiceOrder = make([]int, 0)
	}
	return &c
}
