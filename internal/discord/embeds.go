// Package discord renders engine state as Discord messages and translates
// user interactions into engine calls. It is a thin adapter; all game
// rules live in internal/game.
package discord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/thebtf/tycoonsim/internal/character"
	"github.com/thebtf/tycoonsim/internal/db"
	"github.com/thebtf/tycoonsim/internal/game"
)

// Embed colors.
const (
	colorDefault = 0x00AAFF
	colorError   = 0xFF5555
	colorSuccess = 0x55FF55
	colorInfo    = 0xFFAA00
)

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: description, Color: colorError}
}

func infoEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: description, Color: colorInfo}
}

// characterEmbed introduces a character at game start.
func characterEmbed(c *character.Character) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s (%s)", c.Name, c.Title),
		Description: fmt.Sprintf("Starting year: %d\nInitial capital: $%d", c.StartingYear, c.InitialCapital),
		Color:       colorDefault,
	}
	if len(c.KeyPrinciples) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Key Principles",
			Value: "• " + strings.Join(c.KeyPrinciples, "\n• "),
		})
	}
	return embed
}

// decisionEmbed renders one decision point.
func decisionEmbed(c *character.Character, number int, d *character.Decision) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Decision %d of %d — %d", number, c.TotalDecisions(), d.Year),
		Description: d.Context,
		Color:       colorDefault,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Question", Value: d.Question},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%s (%s)", c.Name, c.Title)},
	}
	for _, key := range sortedChoiceKeys(d.Choices) {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Option %s", strings.ToUpper(key)),
			Value: d.Choices[key].Text,
		})
	}
	return embed
}

// outcomeEmbed renders the result of one choice.
func outcomeEmbed(number int, choiceKey string, choice character.Choice, score int, historicalContext string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Decision %d — you chose %s", number, strings.ToUpper(choiceKey)),
		Color: colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Score", Value: fmt.Sprintf("+%d", score), Inline: true},
		},
	}
	if choice.Outcome != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Outcome", Value: choice.Outcome})
	}
	if historicalContext != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Historical Context", Value: historicalContext})
	}
	if choice.Lesson != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Lesson", Value: choice.Lesson})
	}
	return embed
}

// resultsEmbed renders the final analysis.
func resultsEmbed(c *character.Character, a game.Analysis) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Game Over — %s", c.Name),
		Description: a.Text,
		Color:       colorDefault,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Score", Value: fmt.Sprintf("%d / %d (%.1f%%)", a.Score, a.MaxScore, a.Percentage), Inline: true},
			{
				Name:   "Accuracy",
				Value:  fmt.Sprintf("%d / %d correct (%.1f%%)", a.CorrectDecisions, a.TotalDecisions, a.Accuracy),
				Inline: true,
			},
		},
	}
	if len(a.Principles) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Principles to Remember",
			Value: "• " + strings.Join(a.Principles, "\n• "),
		})
	}
	return embed
}

// statsEmbed renders a player's aggregate record.
func statsEmbed(stats *db.UserStats) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Stats for %s", stats.Username),
		Color: colorDefault,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Games Played", Value: fmt.Sprintf("%d", stats.GamesPlayed), Inline: true},
			{Name: "Total Score", Value: fmt.Sprintf("%d", stats.TotalScore), Inline: true},
			{Name: "Top Score", Value: fmt.Sprintf("%d", stats.TopScore), Inline: true},
			{Name: "Average Score", Value: fmt.Sprintf("%d", stats.AvgScore), Inline: true},
		},
	}
	if stats.FavoriteCharacter != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Favorite Character", Value: stats.FavoriteCharacter, Inline: true,
		})
	}
	if len(stats.RecentGames) > 0 {
		var sb strings.Builder
		for _, g := range stats.RecentGames {
			fmt.Fprintf(&sb, "%s — %d\n", g.CharacterID, g.TotalScore)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Recent Games", Value: sb.String(),
		})
	}
	return embed
}

// leaderboardEmbed renders the high-score table.
func leaderboardEmbed(entries []db.LeaderboardEntry, characterID string) *discordgo.MessageEmbed {
	title := "Leaderboard"
	if characterID != "" {
		title = fmt.Sprintf("Leaderboard — %s", characterID)
	}

	if len(entries) == 0 {
		return infoEmbed(title, "No completed games yet.")
	}

	var sb strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. **%s** — %d\n", i+1, e.Username, e.HighScore)
	}
	return &discordgo.MessageEmbed{Title: title, Description: sb.String(), Color: colorDefault}
}

// characterListEmbed renders the selection list.
func characterListEmbed(summaries []character.Summary) *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&sb, "**%s** — %s (%d decisions)\n", s.Name, s.Title, s.TotalDecisions)
	}
	return &discordgo.MessageEmbed{
		Title:       "Choose a Character",
		Description: sb.String(),
		Color:       colorDefault,
	}
}

func sortedChoiceKeys(choices map[string]character.Choice) []string {
	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
