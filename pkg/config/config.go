package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/korjavin/teamslots/pkg/logger"
)

// Config holds all configuration for the application
type Config struct {
	// Telegram Bot configuration
	BotToken       string
	BotDisplayName string

	// Scheduling configuration
	Location         *time.Location
	ReminderInterval time.Duration
	ReminderWindow   time.Duration

	// Application configuration
	DataDir    string
	Port       string
	LogLevel   string
	GCInterval time.Duration
}

const (
	DefaultTimezone         = "Asia/Kolkata"
	DefaultBotDisplayName   = "NextGen Manager"
	DefaultReminderInterval = 60 * time.Second
	DefaultReminderWindow   = 15 * time.Minute
	DefaultGCInterval       = 10 * time.Minute
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	log := logger.Global

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}

	cfg := &Config{}

	// Required configurations
	cfg.BotToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	// Optional configurations with defaults
	cfg.BotDisplayName = getEnvWithDefault("BOT_DISPLAY_NAME", DefaultBotDisplayName)
	cfg.DataDir = getEnvWithDefault("DATA_DIR", "./data")
	cfg.Port = getEnvWithDefault("PORT", "8080")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	tz := getEnvWithDefault("TZ", DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("Unknown timezone %q, falling back to local time: %v", tz, err)
		loc = time.Local
	}
	cfg.Location = loc

	if cfg.ReminderInterval, err = getDuration("REMINDER_INTERVAL", DefaultReminderInterval); err != nil {
		return nil, err
	}
	if cfg.ReminderWindow, err = getDuration("REMINDER_WINDOW", DefaultReminderWindow); err != nil {
		return nil, err
	}
	if cfg.GCInterval, err = getDuration("GC_INTERVAL", DefaultGCInterval); err != nil {
		return nil, err
	}

	log.Info("Configuration loaded: %s", cfg)
	return cfg, nil
}

// String renders the configuration with the token redacted
func (c Config) String() string {
	token := c.BotToken
	if len(token) > 8 {
		token = token[:8] + "...REDACTED..."
	} else if token != "" {
		token = "...REDACTED..."
	}
	return fmt.Sprintf("{BotToken:%s BotDisplayName:%s Location:%s ReminderInterval:%s ReminderWindow:%s DataDir:%s Port:%s LogLevel:%s GCInterval:%s}",
		token, c.BotDisplayName, c.Location, c.ReminderInterval, c.ReminderWindow, c.DataDir, c.Port, c.LogLevel, c.GCInterval)
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, value)
	}
	return d, nil
}
