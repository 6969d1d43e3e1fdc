package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		pct  float64
		want Tier
	}{
		{100, TierExcellent},
		{80, TierExcellent},
		{79.9, TierGood},
		{60, TierGood},
		{59.9, TierNeedsImprovement},
		{0, TierNeedsImprovement},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.pct), "pct=%v", tt.pct)
	}
}

func TestOrderDecisionsNumeric(t *testing.T) {
	raw := map[string]Decision{
		"10": {Year: 10},
		"2":  {Year: 2},
		"1":  {Year: 1},
	}

	ordered := orderDecisions(raw)
	require.Len(t, ordered, 3)
	assert.Equal(t, 1, ordered[0].Year)
	assert.Equal(t, 2, ordered[1].Year)
	assert.Equal(t, 10, ordered[2].Year)
}

// Non-numeric keys sort as position 0. Tolerated content quirk.
func TestOrderDecisionsNonNumericKeys(t *testing.T) {
	raw := map[string]Decision{
		"intro": {Year: 99},
		"1":     {Year: 1},
		"2":     {Year: 2},
	}

	ordered := orderDecisions(raw)
	require.Len(t, ordered, 3)
	assert.Equal(t, 99, ordered[0].Year, "non-numeric key sorts first")
	assert.Equal(t, 1, ordered[1].Year)
	assert.Equal(t, 2, ordered[2].Year)
}

func TestCharacterAccessors(t *testing.T) {
	c := &Character{
		ID:   "test",
		Name: "Test",
		Decisions: []Decision{
			{
				Year: 1901,
				Choices: map[string]Choice{
					"a": {Score: 10},
					"b": {Score: 4},
				},
				CorrectChoice: "a",
			},
			{
				Year: 1902,
				Choices: map[string]Choice{
					"a": {Score: 5},
					"b": {Score: 20},
				},
				CorrectChoice: "b",
			},
		},
	}

	assert.Nil(t, c.Decision(0))
	assert.Nil(t, c.Decision(3))
	require.NotNil(t, c.Decision(1))
	require.NotNil(t, c.Decision(2))

	assert.Equal(t, 10, c.ChoiceScore(1, "a"))
	assert.Equal(t, 0, c.ChoiceScore(1, "z"), "unknown choice scores zero")
	assert.Equal(t, 0, c.ChoiceScore(5, "a"), "out-of-range decision scores zero")

	assert.True(t, c.IsCorrectChoice(1, "a"))
	assert.False(t, c.IsCorrectChoice(1, "b"))
	assert.False(t, c.IsCorrectChoice(9, "a"))

	assert.Equal(t, 30, c.MaxPossibleScore())

	sum := c.Summary()
	assert.Equal(t, "test", sum.ID)
	assert.Equal(t, 2, sum.TotalDecisions)
}
