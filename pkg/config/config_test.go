package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"TELEGRAM_TOKEN", "BOT_DISPLAY_NAME", "DATA_DIR", "PORT", "LOG_LEVEL",
		"TZ", "REMINDER_INTERVAL", "REMINDER_WINDOW", "GC_INTERVAL"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_RequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromEnv()
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123456789:secret")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "123456789:secret", cfg.BotToken)
	assert.Equal(t, DefaultBotDisplayName, cfg.BotDisplayName)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultTimezone, cfg.Location.String())
	assert.Equal(t, DefaultReminderInterval, cfg.ReminderInterval)
	assert.Equal(t, DefaultReminderWindow, cfg.ReminderWindow)
	assert.Equal(t, DefaultGCInterval, cfg.GCInterval)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TZ", "UTC")
	t.Setenv("REMINDER_INTERVAL", "30s")
	t.Setenv("REMINDER_WINDOW", "5m")
	t.Setenv("BOT_DISPLAY_NAME", "Standup Bot")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 30*time.Second, cfg.ReminderInterval)
	assert.Equal(t, 5*time.Minute, cfg.ReminderWindow)
	assert.Equal(t, "Standup Bot", cfg.BotDisplayName)
}

func TestLoadFromEnv_UnknownZoneFallsBackToLocal(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TZ", "Mars/Olympus_Mons")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestLoadFromEnv_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("REMINDER_WINDOW", "soon")

	_, err := LoadFromEnv()
	assert.ErrorContains(t, err, "REMINDER_WINDOW")
}

func TestString_RedactsToken(t *testing.T) {
	cfg := Config{BotToken: "123456789:very-secret", Location: time.UTC}

	s := cfg.String()
	assert.Contains(t, s, "12345678...REDACTED...")
	assert.NotContains(t, s, "very-secret")

	short := Config{BotToken: "abc", Location: time.UTC}.String()
	assert.NotContains(t, short, "abc")
}
