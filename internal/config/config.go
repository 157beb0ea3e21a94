// Package config loads application configuration from the environment.
package config

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// HTTP server
	ServerPort int

	// Persistence
	DatabasePath string

	// Aggregation
	// AggregationHour is the local wall-clock hour (0-23) of the daily run.
	AggregationHour int

	// AI settings applied to every provider call
	AITimeoutSeconds int
	AIMaxTokens      int

	// Telegram digest (optional; disabled when token is empty)
	TelegramBotToken     string
	TelegramDigestChatID int64

	// Application
	LogLevel string
	LogDir   string
}

// Load loads configuration from .env file and environment variables.
// Priority: .env file > OS environment variables > defaults.
func Load() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// godotenv.Load() sets OS env vars from .env, which viper will then read
	_ = godotenv.Load()

	setDefaults()

	config := &Config{
		ServerPort:   viper.GetInt("SERVER_PORT"),
		DatabasePath: viper.GetString("DATABASE_PATH"),

		AggregationHour: viper.GetInt("AGGREGATION_HOUR"),

		AITimeoutSeconds: viper.GetInt("AI_TIMEOUT_SECONDS"),
		AIMaxTokens:      viper.GetInt("AI_MAX_TOKENS"),

		TelegramBotToken:     viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramDigestChatID: viper.GetInt64("TELEGRAM_DIGEST_CHAT_ID"),

		LogLevel: viper.GetString("LOG_LEVEL"),
		LogDir:   viper.GetString("LOG_DIR"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("SERVER_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "./data/logs2weekly.db")
	viper.SetDefault("AGGREGATION_HOUR", 18)
	viper.SetDefault("AI_TIMEOUT_SECONDS", 120)
	viper.SetDefault("AI_MAX_TOKENS", 4096)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_DIR", "./logs")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DatabasePath, validation.Required),
		validation.Field(&c.AggregationHour, validation.Min(0), validation.Max(23)),
		validation.Field(&c.AITimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.AIMaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// TelegramEnabled reports whether the daily digest notifier is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramDigestChatID != 0
}
