// Package main provides the tycoonsim Discord bot entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/thebtf/tycoonsim/internal/character"
	"github.com/thebtf/tycoonsim/internal/config"
	"github.com/thebtf/tycoonsim/internal/db"
	"github.com/thebtf/tycoonsim/internal/discord"
	"github.com/thebtf/tycoonsim/internal/game"
	"github.com/thebtf/tycoonsim/internal/httpapi"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug || cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("Failed to create data directory")
		}
	}

	store, err := db.NewStore(db.Config{Path: cfg.DBPath, LogLevel: logger.Silent})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	defer store.Close()

	characters, err := character.LoadDir(cfg.CharactersDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.CharactersDir).Msg("Failed to load characters")
	}
	log.Info().Int("characters", characters.Len()).Str("dir", cfg.CharactersDir).Msg("Characters loaded")

	if cfg.WatchCharacters {
		w, err := character.NewWatcher(characters)
		if err != nil {
			log.Warn().Err(err).Msg("Character file watcher unavailable")
		} else if err := w.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start character file watcher")
		} else {
			defer w.Stop()
		}
	}

	engine := game.NewEngine(characters, store, game.Options{
		SessionTimeout: cfg.SessionTimeout,
		ReapInterval:   cfg.ReapInterval,
	})

	bot, err := discord.New(cfg, engine, characters, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord session")
	}
	engine.SetNotifier(bot)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := bot.Start(); err != nil {
			return err
		}
		log.Info().Str("version", Version).Msg("Bot connected")
		<-ctx.Done()
		return bot.Stop()
	})

	g.Go(func() error {
		engine.RunReaper(ctx)
		return nil
	})

	if cfg.HTTPAddr != "" {
		api := httpapi.New(characters, store, engine)
		g.Go(func() error {
			return api.Run(ctx, cfg.HTTPAddr)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Shutdown with error")
	}
	log.Info().Msg("Shutdown complete")
}
