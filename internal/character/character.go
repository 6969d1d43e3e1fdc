// Package character loads and validates character definitions from YAML files.
package character

import (
	"sort"
	"strconv"
)

// Tier buckets a final score percentage into an analysis template.
type Tier string

const (
	TierExcellent        Tier = "excellent"
	TierGood             Tier = "good"
	TierNeedsImprovement Tier = "needs_improvement"
)

// TierFor selects the analysis tier for a score percentage.
func TierFor(percentage float64) Tier {
	switch {
	case percentage >= 80:
		return TierExcellent
	case percentage >= 60:
		return TierGood
	default:
		return TierNeedsImprovement
	}
}

// Choice is one selectable option within a decision.
type Choice struct {
	Text    string `yaml:"text"`
	Score   int    `yaml:"score"`
	Outcome string `yaml:"outcome"`
	Lesson  string `yaml:"V1Lesson"`
}

// Decision is one step in a character's scenario.
type Decision struct {
	Year              int               `yaml:"year"`
	Context           string            `yaml:"context"`
	Question          string            `yaml:"question"`
	Choices           map[string]Choice `yaml:"choices"`
	CorrectChoice     string            `yaml:"correct_choice"`
	HistoricalContext string            `yaml:"historical_context"`
}

// MaxScore returns the highest individual choice score in the decision.
func (d *Decision) MaxScore() int {
	max := 0
	for _, c := range d.Choices {
		if c.Score > max {
			max = c.Score
		}
	}
	return max
}

// AnalysisTemplate is the narrative shown for one performance tier.
type AnalysisTemplate struct {
	Text       string   `yaml:"text"`
	Principles []string `yaml:"principles"`
}

// Character is an immutable scenario bundle loaded from a single YAML file.
// ID is the source filename without extension.
type Character struct {
	ID             string
	Name           string
	Title          string
	StartingYear   int
	InitialCapital int
	KeyPrinciples  []string
	Decisions      []Decision
	Analysis       map[Tier]AnalysisTemplate
}

// Summary is the lightweight listing form of a character.
type Summary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Title          string `json:"title"`
	TotalDecisions int    `json:"total_decisions"`
}

// Summary returns the listing form of the character.
func (c *Character) Summary() Summary {
	return Summary{
		ID:             c.ID,
		Name:           c.Name,
		Title:          c.Title,
		TotalDecisions: len(c.Decisions),
	}
}

// Decision returns the 1-based decision, or nil when out of range.
func (c *Character) Decision(number int) *Decision {
	if number < 1 || number > len(c.Decisions) {
		return nil
	}
	return &c.Decisions[number-1]
}

// TotalDecisions returns the number of decisions in the scenario.
func (c *Character) TotalDecisions() int {
	return len(c.Decisions)
}

// ChoiceScore returns the score for a choice in the 1-based decision,
// or 0 when either the decision or the choice does not exist.
func (c *Character) ChoiceScore(number int, choiceKey string) int {
	d := c.Decision(number)
	if d == nil {
		return 0
	}
	return d.Choices[choiceKey].Score
}

// IsCorrectChoice reports whether choiceKey is the historically correct
// choice for the 1-based decision.
func (c *Character) IsCorrectChoice(number int, choiceKey string) bool {
	d := c.Decision(number)
	if d == nil {
		return false
	}
	return d.CorrectChoice == choiceKey
}

// MaxPossibleScore returns the score earned by answering every decision
// with its highest-scoring choice.
func (c *Character) MaxPossibleScore() int {
	total := 0
	for i := range c.Decisions {
		total += c.Decisions[i].MaxScore()
	}
	return total
}

// AnalysisFor returns the analysis template for a score percentage.
// Missing tiers fall back to a built-in blurb with no principles.
func (c *Character) AnalysisFor(percentage float64) AnalysisTemplate {
	tier := TierFor(percentage)
	if tpl, ok := c.Analysis[tier]; ok {
		return tpl
	}
	return defaultTemplates[tier]
}

var defaultTemplates = map[Tier]AnalysisTemplate{
	TierExcellent:        {Text: "Excellent performance!"},
	TierGood:             {Text: "Good performance!"},
	TierNeedsImprovement: {Text: "Needs improvement."},
}

// orderDecisions flattens the raw decision mapping into a sequence sorted
// by numeric key ascending. Non-numeric and non-positive keys sort as 0;
// ties break on the raw key so the order stays deterministic. Content is
// expected to use keys 1..N, the fallback is tolerated, not encouraged.
func orderDecisions(raw map[string]Decision) []Decision {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, nj := decisionKeyOrder(keys[i]), decisionKeyOrder(keys[j])
		if ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})

	ordered := make([]Decision, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, raw[k])
	}
	return ordered
}

func decisionKeyOrder(key string) int {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
