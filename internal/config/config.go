// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every setting the server and admin binaries read.
type Config struct {
	Port string `env:"PORT" envDefault:"3001"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-please-change"`
	// APIKey enables header based identity (X-API-Key + X-User-Id + X-User-Name).
	APIKey       string `env:"AUTH_KEY"`
	LegacyAPIKey string `env:"API_AUTH_KEY"`

	ValueTolerance float64 `env:"VALUE_TOLERANCE" envDefault:"0.1"`
	AllowSelfJoin  bool    `env:"ALLOW_SELF_JOIN" envDefault:"false"`

	TransferURL     string        `env:"TRANSFER_URL"`
	TransferAuthKey string        `env:"TRANSFER_AUTH_KEY"`
	TransferTimeout time.Duration `env:"TRANSFER_TIMEOUT" envDefault:"5s"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	DatabaseDSN   string `env:"DATABASE_DSN"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

var (
	ErrInvalidTolerance = errors.New("VALUE_TOLERANCE must be a number between 0 and 1")
	ErrInvalidStorage   = errors.New("STORAGE_DRIVER must be memory or postgres")
	ErrMissingDSN       = errors.New("DATABASE_DSN is required for the postgres storage driver")
)

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded, using process environment")
	}
	return FromEnv()
}

// FromEnv parses the process environment without touching .env files.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values env tags can't express.
func (c *Config) Validate() error {
	if math.IsNaN(c.ValueTolerance) || c.ValueTolerance < 0 || c.ValueTolerance > 1 {
		return ErrInvalidTolerance
	}
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return ErrMissingDSN
		}
	default:
		return ErrInvalidStorage
	}
	if c.TransferTimeout <= 0 {
		c.TransferTimeout = DefaultTransferTimeout
	}
	return nil
}

// AuthKey returns the static API key, preferring AUTH_KEY over API_AUTH_KEY.
func (c *Config) AuthKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return c.LegacyAPIKey
}

// TransferKey is sent as X-API-Key to the transfer endpoint. It falls back to the API key.
func (c *Config) TransferKey() string {
	if c.TransferAuthKey != "" {
		return c.TransferAuthKey
	}
	return c.AuthKey()
}

// RedisEnabled reports whether the cross-instance room feed should use Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// TelegramEnabled reports whether finished flips should be announced.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}
