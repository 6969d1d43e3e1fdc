// Package config provides application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	DiscordToken string
	OwnerID      string // platform user allowed to trigger admin commands

	CharactersDir   string
	WatchCharacters bool // reload automatically when character files change

	DBPath string

	HTTPAddr string // ops/stats HTTP listener, empty disables it

	SessionTimeout time.Duration
	ReapInterval   time.Duration

	Debug bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		OwnerID:         os.Getenv("BOT_OWNER_ID"),
		CharactersDir:   getEnv("CHARACTERS_DIR", "characters"),
		WatchCharacters: getEnvBool("CHARACTERS_WATCH", true),
		DBPath:          getEnv("DB_PATH", "./data/game_data.db"),
		HTTPAddr:        getEnvAllowEmpty("HTTP_ADDR", ":8090"),
		SessionTimeout:  getEnvDuration("SESSION_TIMEOUT", 5*time.Minute),
		ReapInterval:    getEnvDuration("REAP_INTERVAL", time.Minute),
		Debug:           getEnvBool("DEBUG", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are usable.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.CharactersDir == "" {
		return fmt.Errorf("CHARACTERS_DIR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.ReapInterval <= 0 {
		return fmt.Errorf("REAP_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAllowEmpty falls back only when the variable is unset, so setting
// it to the empty string is a meaningful value (HTTP_ADDR="" disables the
// ops listener).
func getEnvAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
