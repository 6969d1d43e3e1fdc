package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/tycoonsim/internal/game"
)

// Component custom ID namespaces. Session-scoped IDs carry the session so
// stale buttons from a superseded game fail cleanly with "session expired".
const (
	idCharSelect   = "tycoon:char"
	idChoicePrefix = "tycoon:choice:" // tycoon:choice:<sessionID>:<choiceKey>
	idRatingPrefix = "tycoon:fb:"     // tycoon:fb:<sessionID>:<rating>
)

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, commandPrefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, commandPrefix))
	if len(fields) == 0 {
		return
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "play":
		b.cmdPlay(m, args)
	case "stats":
		b.cmdStats(m)
	case "leaderboard":
		b.cmdLeaderboard(m, args)
	case "endgame":
		b.cmdEndGame(m)
	case "reload_characters":
		b.cmdReload(m)
	case "help":
		b.cmdHelp(m)
	}
}

func (b *Bot) cmdPlay(m *discordgo.MessageCreate, args []string) {
	// Direct start when a character was named, otherwise show the menu.
	if len(args) > 0 {
		b.startGame(m.ChannelID, m.Author.ID, m.Author.Username, args[0])
		return
	}

	summaries := b.characters.List()
	if len(summaries) == 0 {
		b.sendEmbed(m.ChannelID, errorEmbed("No Characters", "No characters are loaded right now."))
		return
	}

	options := make([]discordgo.SelectMenuOption, 0, len(summaries))
	for _, sum := range summaries {
		options = append(options, discordgo.SelectMenuOption{
			Label:       sum.Name,
			Value:       sum.ID,
			Description: sum.Title,
		})
	}

	_, err := b.session.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embed: characterListEmbed(summaries),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    idCharSelect,
					Placeholder: "Pick a character",
					Options:     options,
				},
			}},
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to send character menu")
	}
}

func (b *Bot) cmdStats(m *discordgo.MessageCreate) {
	stats, err := b.store.GetUserStats(context.Background(), m.Author.ID)
	if err != nil {
		log.Error().Err(err).Str("user", m.Author.ID).Msg("Failed to load user stats")
		b.sendEmbed(m.ChannelID, errorEmbed("Stats Unavailable", "Could not load your stats, try again later."))
		return
	}
	if stats == nil {
		b.sendEmbed(m.ChannelID, infoEmbed("No Stats Yet", "Play a game first with `!play`."))
		return
	}
	b.sendEmbed(m.ChannelID, statsEmbed(stats))
}

func (b *Bot) cmdLeaderboard(m *discordgo.MessageCreate, args []string) {
	characterID := ""
	if len(args) > 0 {
		characterID = args[0]
	}

	entries, err := b.store.GetLeaderboard(context.Background(), 10, characterID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load leaderboard")
		b.sendEmbed(m.ChannelID, errorEmbed("Leaderboard Unavailable", "Could not load the leaderboard, try again later."))
		return
	}
	b.sendEmbed(m.ChannelID, leaderboardEmbed(entries, characterID))
}

func (b *Bot) cmdEndGame(m *discordgo.MessageCreate) {
	session := b.engine.SessionFor(m.Author.ID)
	if session == nil {
		b.sendEmbed(m.ChannelID, infoEmbed("No Active Game", "You have no game in progress."))
		return
	}
	if err := b.engine.End(context.Background(), session.ID, session.Completed()); err != nil {
		log.Warn().Err(err).Str("session", session.ID).Msg("Failed to end session")
		return
	}
	b.sendEmbed(m.ChannelID, infoEmbed("Game Ended", "Your game has been ended. Start a new one with `!play`."))
}

func (b *Bot) cmdReload(m *discordgo.MessageCreate) {
	if b.cfg.OwnerID == "" || m.Author.ID != b.cfg.OwnerID {
		return
	}
	count, err := b.characters.Reload()
	if err != nil {
		b.sendEmbed(m.ChannelID, errorEmbed("Reload Failed", err.Error()))
		return
	}
	b.sendEmbed(m.ChannelID, infoEmbed("Characters Reloaded", fmt.Sprintf("Loaded %d characters.", count)))
}

func (b *Bot) cmdHelp(m *discordgo.MessageCreate) {
	b.sendEmbed(m.ChannelID, infoEmbed("Tycoon Simulator",
		"`!play [character]` — start a game\n"+
			"`!endgame` — end your current game\n"+
			"`!stats` — your lifetime stats\n"+
			"`!leaderboard [character]` — top scores\n"+
			"`!help` — this message"))
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	data := i.MessageComponentData()

	switch {
	case data.CustomID == idCharSelect:
		if len(data.Values) == 0 {
			return
		}
		b.ackInteraction(i)
		user := interactionUser(i)
		if user == nil {
			return
		}
		b.startGame(i.ChannelID, user.ID, user.Username, data.Values[0])

	case strings.HasPrefix(data.CustomID, idChoicePrefix):
		b.ackInteraction(i)
		rest := strings.TrimPrefix(data.CustomID, idChoicePrefix)
		sessionID, choiceKey, ok := strings.Cut(rest, ":")
		if !ok {
			return
		}
		b.applyChoice(i.ChannelID, sessionID, choiceKey)

	case strings.HasPrefix(data.CustomID, idRatingPrefix):
		b.ackInteraction(i)
		rest := strings.TrimPrefix(data.CustomID, idRatingPrefix)
		sessionID, ratingStr, ok := strings.Cut(rest, ":")
		if !ok {
			return
		}
		b.applyFeedback(i.ChannelID, sessionID, ratingStr)
	}
}

func (b *Bot) startGame(channelID, userID, username, characterID string) {
	ctx := context.Background()

	session, err := b.engine.Start(ctx, userID, username, characterID, channelID)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrCharacterNotFound):
			b.sendEmbed(channelID, errorEmbed("Unknown Character",
				fmt.Sprintf("No character named `%s`. Use `!play` to see the list.", characterID)))
		default:
			log.Error().Err(err).Str("user", userID).Msg("Failed to start game")
			b.sendEmbed(channelID, errorEmbed("Could Not Start", "Something went wrong starting your game."))
		}
		return
	}

	b.sendEmbed(channelID, characterEmbed(session.Character))
	b.sendDecision(channelID, session.ID)
}

// sendDecision renders the session's current decision with choice buttons.
func (b *Bot) sendDecision(channelID, sessionID string) {
	session := b.engine.Get(sessionID)
	if session == nil {
		return
	}
	d := session.Character.Decision(session.CurrentDecision)
	if d == nil {
		return
	}

	keys := sortedChoiceKeys(d.Choices)
	buttons := make([]discordgo.MessageComponent, 0, len(keys))
	for _, key := range keys {
		buttons = append(buttons, discordgo.Button{
			Label:    strings.ToUpper(key),
			Style:    discordgo.PrimaryButton,
			CustomID: idChoicePrefix + sessionID + ":" + key,
		})
	}

	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embed:      decisionEmbed(session.Character, session.CurrentDecision, d),
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("Failed to send decision")
	}
}

func (b *Bot) applyChoice(channelID, sessionID, choiceKey string) {
	ctx := context.Background()

	// Snapshot the live decision before advancing so the outcome embed can
	// show its narrative. The engine stays authoritative about scoring.
	session := b.engine.Get(sessionID)

	delta, completed, err := b.engine.Advance(ctx, sessionID, choiceKey)
	if err != nil {
		if errors.Is(err, game.ErrSessionNotFound) || errors.Is(err, game.ErrValidation) {
			b.sendEmbed(channelID, errorEmbed("Session Expired",
				"That game is no longer active. Start a new one with `!play`."))
			return
		}
		log.Error().Err(err).Str("session", sessionID).Msg("Failed to apply choice")
		return
	}

	if session != nil {
		if d := session.Character.Decision(session.CurrentDecision); d != nil {
			b.sendEmbed(channelID, outcomeEmbed(
				session.CurrentDecision, choiceKey, d.Choices[choiceKey], delta, d.HistoricalContext))
		}
	}

	if !completed {
		b.sendDecision(channelID, sessionID)
		return
	}
	b.sendResults(channelID, sessionID)
}

// sendResults renders the final analysis with feedback rating buttons.
func (b *Bot) sendResults(channelID, sessionID string) {
	session := b.engine.Get(sessionID)
	if session == nil {
		return
	}
	analysis, err := b.engine.Analysis(sessionID)
	if err != nil {
		return
	}

	buttons := make([]discordgo.MessageComponent, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		buttons = append(buttons, discordgo.Button{
			Label:    strings.Repeat("★", rating),
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s%s:%d", idRatingPrefix, sessionID, rating),
		})
	}

	_, err = b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embed:      resultsEmbed(session.Character, analysis),
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("Failed to send results")
	}
}

func (b *Bot) applyFeedback(channelID, sessionID, ratingStr string) {
	rating, err := strconv.Atoi(ratingStr)
	if err != nil {
		return
	}
	// Clamp defensively; the engine rejects out-of-range values anyway.
	if rating < 1 {
		rating = 1
	} else if rating > 5 {
		rating = 5
	}

	ctx := context.Background()
	ok, err := b.engine.RecordFeedback(ctx, sessionID, rating, "")
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("Failed to record feedback")
		return
	}
	if !ok {
		b.sendEmbed(channelID, infoEmbed("Feedback", "That game session is gone, but thanks anyway!"))
		return
	}

	b.sendEmbed(channelID, infoEmbed("Thanks!", "Your feedback was recorded."))

	// Feedback is the last interaction of a finished playthrough.
	if session := b.engine.Get(sessionID); session != nil && session.Completed() {
		_ = b.engine.End(ctx, sessionID, true)
	}
}

func (b *Bot) sendEmbed(channelID string, embed *discordgo.MessageEmbed) {
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("Failed to send embed")
	}
}

func (b *Bot) ackInteraction(i *discordgo.InteractionCreate) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Debug().Err(err).Msg("Failed to ack interaction")
	}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
