package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDatabasePath = "transaction.db"
	defaultHealthAddr   = ":8080"
	defaultSender       = "MPESA"
)

type Config struct {
	DiscordBotToken  string
	DiscordChannelId string
	DatabasePath     string
	HealthAddr       string
	// DefaultSender is assumed for pasted messages that carry no sender line.
	DefaultSender    string
	LogLevel         string
	WeekStart        time.Weekday
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	weekStart, err := parseWeekday(os.Getenv("WEEK_START"))
	if err != nil {
		return nil, err
	}

	return &Config{
		DiscordBotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelId: os.Getenv("DISCORD_CHANNEL_ID"),
		DatabasePath:     envOr("WALLET_DB_PATH", defaultDatabasePath),
		HealthAddr:       envOr("HEALTH_ADDR", defaultHealthAddr),
		DefaultSender:    envOr("DEFAULT_SENDER", defaultSender),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		WeekStart:        weekStart,
	}, nil
}

// ValidateBot checks the settings the Discord bot cannot run without.
func (c *Config) ValidateBot() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("Bot token is not set")
	}
	if c.DiscordChannelId == "" {
		return fmt.Errorf("Channel ID is not set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("invalid WEEK_START %q: use monday, sunday or saturday", s)
	}
}
