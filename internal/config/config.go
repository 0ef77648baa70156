// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string `envconfig:"DATABASE_PATH" default:"./data/digest.db"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`

	// Timezone is the zone "now" is expressed in for tracks without their own.
	Timezone    string        `envconfig:"TIMEZONE"`
	TriggerCron string        `envconfig:"TRIGGER_CRON" default:"* * * * *"`
	DryRun      bool          `envconfig:"DRY_RUN" default:"false"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	SubjectPrefix  string `envconfig:"SUBJECT_PREFIX" default:"Daily Digest"`
	PointerBaseURL string `envconfig:"POINTER_BASE_URL"`

	SMTP     SMTP     `envconfig:"SMTP"`
	Telegram Telegram `envconfig:"TELEGRAM"`
	Google   Google   `envconfig:"GOOGLE"`
}

// SMTP configures outgoing mail.
type SMTP struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM"`
}

// Telegram configures the admin bot and chat delivery.
type Telegram struct {
	BotToken     string `envconfig:"BOT_TOKEN"`
	AllowedUsers IDList `envconfig:"ALLOWED_USERS"`
}

// Google holds the OAuth2 client used for YouTube and Google Photos.
type Google struct {
	ClientID      string `envconfig:"CLIENT_ID"`
	ClientSecret  string `envconfig:"CLIENT_SECRET"`
	RefreshToken  string `envconfig:"REFRESH_TOKEN"`
	PhotosBaseURL string `envconfig:"PHOTOS_BASE_URL"`
}

// Configured reports whether credentials are present.
func (g Google) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RefreshToken != ""
}

// IDList is a comma separated list of Telegram user ids.
type IDList []int64

// Decode implements envconfig.Decoder.
func (l *IDList) Decode(value string) error {
	var ids IDList
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user ID %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if there is one. Variables already set in the
// environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
		}
	}
	return &cfg, nil
}

// Location returns the configured zone, defaulting to local time.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RequireTelegram checks the settings needed by the bot.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// RequireSMTP checks the settings needed to send mail.
func (c *Config) RequireSMTP() error {
	if c.SMTP.Host == "" {
		return errors.New("SMTP_HOST is required")
	}
	if c.SMTP.From == "" {
		return errors.New("SMTP_FROM is required")
	}
	return nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.Telegram.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.Telegram.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
