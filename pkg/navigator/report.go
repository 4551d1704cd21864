package navigator

import (
	"html"
	"strconv"
	"strings"

	"github.com/jwebster45206/map-quest/pkg/state"
)

// DefaultGameName is used in the report when a session has no game name.
const DefaultGameName = "this game"

// MessageType tells a client how to render a report message.
type MessageType string

const (
	MessageHeading MessageType = "heading"
	MessageText    MessageType = "text"
	MessageHTML    MessageType = "html"
)

// Message is one block of the game-over report.
type Message struct {
	Type  MessageType `json:"type"`
	Value string      `json:"value"`
}

// ScoreRow is the scoring breakdown for one prompt.
type ScoreRow struct {
	Prompt int     `json:"prompt"` // 1-based
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
	Best   float64 `json:"best"`
	Worst  float64 `json:"worst"`
}

// Report is the final score summary for a session.
type Report struct {
	GameName   string     `json:"game_name"`
	TotalScore float64    `json:"total_score"`
	Rows       []ScoreRow `json:"rows"`
	Messages   []Message  `json:"messages"`
}

// Scored reports whether any prompt in the game awards or costs points.
func (r Report) Scored() bool {
	return len(r.Rows) > 0
}

// GameOverContent returns the messages shown when the game ends.
func (n *Navigator) GameOverContent(s *state.SessionState) []Message {
	return n.GameOverReport(s).Messages
}

// GameOverReport scores every prompt that has choice outcomes. Only prompts
// where points are actually in play appear in the breakdown.
func (n *Navigator) GameOverReport(s *state.SessionState) Report {
	r := Report{
		GameName: s.GameName,
		Rows:     make([]ScoreRow, 0),
	}
	if r.GameName == "" {
		r.GameName = DefaultGameName
	}

	for p, prompt := range n.script.PromptList {
		if len(prompt.ActionList) == 0 {
			continue
		}
		var score, best, worst float64
		if c, ok := s.Choice(p); ok {
			score = n.script.Outcome(p, c).Points()
		}
		for _, outcome := range prompt.ActionList {
			v := outcome.Points()
			if v > best {
				best = v
			}
			if v < worst {
				worst = v
			}
		}
		r.TotalScore += score
		if best != 0 || worst != 0 {
			r.Rows = append(r.Rows, ScoreRow{
				Prompt: p + 1,
				Title:  prompt.Prompt.Title,
				Score:  score,
				Best:   best,
				Worst:  worst,
			})
		}
	}

	r.Messages = []Message{
		{Type: MessageHeading, Value: "Game Over"},
		{Type: MessageText, Value: "You have completed " + r.GameName + "."},
	}
	if r.Scored() {
		r.Messages = append(r.Messages,
			Message{Type: MessageText, Value: "Your total score is " + FormatPoints(r.TotalScore) + "."},
			Message{Type: MessageHTML, Value: scoreTable(r.Rows)},
		)
	}
	return r
}

func scoreTable(rows []ScoreRow) string {
	var b strings.Builder
	b.WriteString("<table><tr><th>Prompt</th><th>Score</th><th>Best possible</th></tr>")
	for _, row := range rows {
		b.WriteString("<tr><td>")
		b.WriteString(strconv.Itoa(row.Prompt))
		b.WriteString(". ")
		b.WriteString(html.EscapeString(row.Title))
		b.WriteString("</td><td>")
		b.WriteString(FormatPoints(row.Score))
		b.WriteString("</td><td>")
		b.WriteString(FormatPoints(row.Best))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// FormatPoints renders a point value without trailing zeros.
func FormatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
