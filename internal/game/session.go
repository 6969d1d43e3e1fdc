// Package game implements the session and scoring engine: it owns the live
// session table, advances playthroughs decision by decision, computes the
// final analysis, and reaps idle sessions.
package game

import (
	"time"

	"github.com/thebtf/tycoonsim/internal/character"
)

// Session is one user's in-progress playthrough of a character. Sessions
// are owned by the Engine; all mutation happens under the engine lock.
type Session struct {
	ID        string
	UserID    string
	Character *character.Character
	GameID    int64
	ChannelID string

	// CurrentDecision is a 1-based pointer into the character's decision
	// sequence. The session is complete once it exceeds the total.
	CurrentDecision int
	TotalScore      int
	DecisionsMade   map[int]string
	LastActivity    time.Time
}

// Completed reports whether every decision has been answered.
func (s *Session) Completed() bool {
	return s.CurrentDecision > s.Character.TotalDecisions()
}

// Analysis is the performance breakdown for a session. It can be computed
// at any point, not only at completion.
type Analysis struct {
	Text             string         `json:"text"`
	Principles       []string       `json:"principles"`
	Tier             character.Tier `json:"tier"`
	Score            int            `json:"score"`
	MaxScore         int            `json:"max_score"`
	Percentage       float64        `json:"percentage"`
	CorrectDecisions int            `json:"correct_decisions"`
	TotalDecisions   int            `json:"total_decisions"`
	Accuracy         float64        `json:"accuracy"`
}

// analyze computes the analysis for a session. Pure function of the
// session and its character.
func analyze(s *Session) Analysis {
	maxScore := s.Character.MaxPossibleScore()

	percentage := 0.0
	if maxScore > 0 {
		percentage = float64(s.TotalScore) / float64(maxScore) * 100
	}

	correct := 0
	for number, choice := range s.DecisionsMade {
		if s.Character.IsCorrectChoice(number, choice) {
			correct++
		}
	}

	total := s.Character.TotalDecisions()
	accuracy := 0.0
	if total > 0 {
		accuracy = float64(correct) / float64(total) * 100
	}

	tpl := s.Character.AnalysisFor(percentage)
	return Analysis{
		Text:             tpl.Text,
		Principles:       tpl.Principles,
		Tier:             character.TierFor(percentage),
		Score:            s.TotalScore,
		MaxScore:         maxScore,
		Percentage:       percentage,
		CorrectDecisions: correct,
		TotalDecisions:   total,
		Accuracy:         accuracy,
	}
}
