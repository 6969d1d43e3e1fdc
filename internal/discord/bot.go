package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/tycoonsim/internal/character"
	"github.com/thebtf/tycoonsim/internal/config"
	"github.com/thebtf/tycoonsim/internal/db"
	"github.com/thebtf/tycoonsim/internal/game"
)

const commandPrefix = "!"

// Bot is the Discord-facing adapter around the game engine.
type Bot struct {
	cfg        *config.Config
	engine     *game.Engine
	characters *character.Store
	store      *db.Store

	mu      sync.Mutex
	session *discordgo.Session
}

// New creates the bot and its underlying Discord session without opening
// the gateway connection.
func New(cfg *config.Config, engine *game.Engine, characters *character.Store, store *db.Store) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{
		cfg:        cfg,
		engine:     engine,
		characters: characters,
		store:      store,
		session:    session,
	}
	session.AddHandler(b.handleMessage)
	session.AddHandler(b.handleInteraction)
	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	log.Info().Msg("Discord gateway connected")
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	log.Info().Msg("Discord gateway closed")
	return nil
}

// NotifyExpired implements game.Notifier by DMing the user. Users with
// closed DMs just don't get the notice.
func (b *Bot) NotifyExpired(userID, channelID string) error {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	_, err = b.session.ChannelMessageSend(ch.ID,
		"Your game session has expired due to inactivity. You can start a new game anytime!")
	if err != nil {
		return fmt.Errorf("send expiry notice: %w", err)
	}
	return nil
}
