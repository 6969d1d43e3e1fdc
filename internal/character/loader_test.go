package character

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCharacterYAML = `
name: John D. Rockefeller
title: The Oil Magnate
starting_year: 1863
initial_capital: 4000
key_principles:
  - Vertical integration
  - Relentless cost control
decisions:
  "1":
    year: 1863
    context: Cleveland is booming with new refineries.
    question: Where do you put your capital?
    choices:
      a:
        text: Build the most efficient refinery in Cleveland
        score: 10
        outcome: Your refinery undercuts every rival.
        V1Lesson: Efficiency compounds.
      b:
        text: Speculate in drilling leases
        score: 2
        outcome: The wells run dry.
    correct_choice: a
    historical_context: Rockefeller chose refining over drilling.
  "2":
    year: 1870
    context: Rivals are consolidating.
    question: How do you respond?
    choices:
      a:
        text: Cut prices and wait
        score: 5
      b:
        text: Buy out your competitors
        score: 20
    correct_choice: b
analysis_templates:
  excellent:
    text: You ran it like Rockefeller himself.
    principles:
      - Scale wins
  good:
    text: Solid instincts, uneven execution.
    principles: []
  needs_improvement:
    text: The trust would have crushed you.
    principles:
      - Control your costs
`

func writeCharacter(t *testing.T, dir, id, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".yml"), []byte(content), 0600))
}

func TestLoadDirRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeCharacter(t, dir, "rockefeller", validCharacterYAML)

	store, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	c := store.Get("rockefeller")
	require.NotNil(t, c)

	assert.Equal(t, "rockefeller", c.ID)
	assert.Equal(t, "John D. Rockefeller", c.Name)
	assert.Equal(t, "The Oil Magnate", c.Title)
	assert.Equal(t, 1863, c.StartingYear)
	assert.Equal(t, 4000, c.InitialCapital)
	assert.Equal(t, []string{"Vertical integration", "Relentless cost control"}, c.KeyPrinciples)

	require.Equal(t, 2, c.TotalDecisions())
	d1 := c.Decision(1)
	require.NotNil(t, d1)
	assert.Equal(t, 1863, d1.Year)
	assert.Equal(t, "a", d1.CorrectChoice)
	assert.Equal(t, "Rockefeller chose refining over drilling.", d1.HistoricalContext)
	assert.Equal(t, 10, d1.Choices["a"].Score)
	assert.Equal(t, "Efficiency compounds.", d1.Choices["a"].Lesson)
	assert.Equal(t, "The wells run dry.", d1.Choices["b"].Outcome)

	d2 := c.Decision(2)
	require.NotNil(t, d2)
	assert.Equal(t, 1870, d2.Year)
	assert.Equal(t, 20, d2.Choices["b"].Score)

	assert.Equal(t, 30, c.MaxPossibleScore())

	tpl := c.AnalysisFor(100)
	assert.Equal(t, "You ran it like Rockefeller himself.", tpl.Text)
	assert.Equal(t, []string{"Scale wins"}, tpl.Principles)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	store, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.List())
}

func TestReloadSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeCharacter(t, dir, "rockefeller", validCharacterYAML)
	writeCharacter(t, dir, "broken", "name: Broken\ntitle: [unclosed")
	writeCharacter(t, dir, "nodecisions", `
name: Empty
title: No Decisions
starting_year: 1900
initial_capital: 100
key_principles: [one]
decisions: {}
analysis_templates: {}
`)

	store, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.NotNil(t, store.Get("rockefeller"))
	assert.Nil(t, store.Get("broken"))
	assert.Nil(t, store.Get("nodecisions"))
}

func TestValidationFailures(t *testing.T) {
	base := `
name: Test
title: Tester
starting_year: 1900
initial_capital: 100
key_principles: [one]
decisions:
  "1":
    year: 1901
    context: ctx
    question: q
    choices:
      a: {text: A, score: 1}
    correct_choice: a
analysis_templates: {}
`

	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing name",
			yaml: `
title: Tester
starting_year: 1900
initial_capital: 100
key_principles: [one]
decisions:
  "1": {year: 1901, context: ctx, question: q, choices: {a: {text: A, score: 1}}, correct_choice: a}
`,
		},
		{
			name: "missing starting_year",
			yaml: `
name: Test
title: Tester
initial_capital: 100
key_principles: [one]
decisions:
  "1": {year: 1901, context: ctx, question: q, choices: {a: {text: A, score: 1}}, correct_choice: a}
`,
		},
		{
			name: "decision missing question",
			yaml: `
name: Test
title: Tester
starting_year: 1900
initial_capital: 100
key_principles: [one]
decisions:
  "1": {year: 1901, context: ctx, choices: {a: {text: A, score: 1}}, correct_choice: a}
analysis_templates: {}
`,
		},
		{
			name: "decision with no choices",
			yaml: `
name: Test
title: Tester
starting_year: 1900
initial_capital: 100
key_principles: [one]
decisions:
  "1": {year: 1901, context: ctx, question: q, choices: {}, correct_choice: a}
analysis_templates: {}
`,
		},
		{
			name: "correct_choice not among choices",
			yaml: `
name: Test
title: Tester
starting_year: 1900
initial_capital: 100
key_principles: [one]
decisions:
  "1": {year: 1901, context: ctx, question: q, choices: {a: {text: A, score: 1}}, correct_choice: z}
analysis_templates: {}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeCharacter(t, dir, "good", base)
			writeCharacter(t, dir, "bad", tt.yaml)

			store, err := LoadDir(dir)
			require.NoError(t, err)
			assert.Equal(t, 1, store.Len(), "invalid file must be skipped")
			assert.Nil(t, store.Get("bad"))
		})
	}
}

func TestMissingAnalysisTemplatesAccepted(t *testing.T) {
	dir := t.TempDir()
	writeCharacter(t, dir, "plain", `
name: Plain
title: No Templates
starting_year: 1900
initial_capital: 100
key_principles: [one]
decisions:
  "1": {year: 1901, context: ctx, question: q, choices: {a: {text: A, score: 1}}, correct_choice: a}
`)

	store, err := LoadDir(dir)
	require.NoError(t, err)

	c := store.Get("plain")
	require.NotNil(t, c)

	// Falls back to built-in blurbs.
	assert.Equal(t, "Excellent performance!", c.AnalysisFor(90).Text)
	assert.Equal(t, "Good performance!", c.AnalysisFor(70).Text)
	assert.Equal(t, "Needs improvement.", c.AnalysisFor(10).Text)
	assert.Empty(t, c.AnalysisFor(90).Principles)
}

func TestReloadReplacesTable(t *testing.T) {
	dir := t.TempDir()
	writeCharacter(t, dir, "rockefeller", validCharacterYAML)

	store, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	require.NoError(t, os.Remove(filepath.Join(dir, "rockefeller.yml")))
	writeCharacter(t, dir, "carnegie", `
name: Andrew Carnegie
title: The Steel King
starting_year: 1875
initial_capital: 10000
key_principles: [Reinvest everything]
decisions:
  "1": {year: 1875, context: ctx, question: q, choices: {a: {text: A, score: 5}}, correct_choice: a}
`)

	count, err := store.Reload()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Nil(t, store.Get("rockefeller"))
	assert.NotNil(t, store.Get("carnegie"))
}

func TestReloadMissingDirectoryKeepsTable(t *testing.T) {
	dir := t.TempDir()
	charDir := filepath.Join(dir, "characters")
	require.NoError(t, os.Mkdir(charDir, 0700))
	writeCharacter(t, charDir, "rockefeller", validCharacterYAML)

	store, err := LoadDir(charDir)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	require.NoError(t, os.RemoveAll(charDir))

	_, err = store.Reload()
	require.Error(t, err)
	assert.NotNil(t, store.Get("rockefeller"), "previous table survives a failed reload")
}

func TestListSortedByID(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"zulu", "alpha", "mike"} {
		writeCharacter(t, dir, id, `
name: N
title: T
starting_year: 1900
initial_capital: 1
key_principles: [p]
decisions:
  "1": {year: 1901, context: c, question: q, choices: {a: {text: A, score: 3}}, correct_choice: a}
`)
	}

	store, err := LoadDir(dir)
	require.NoError(t, err)

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].ID)
	assert.Equal(t, "mike", list[1].ID)
	assert.Equal(t, "zulu", list[2].ID)
	assert.Equal(t, 1, list[0].TotalDecisions)
}
