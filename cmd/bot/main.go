package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/korjavin/teamslots/pkg/clock"
	"github.com/korjavin/teamslots/pkg/config"
	"github.com/korjavin/teamslots/pkg/keepalive"
	"github.com/korjavin/teamslots/pkg/logger"
	"github.com/korjavin/teamslots/pkg/messages"
	"github.com/korjavin/teamslots/pkg/metrics"
	"github.com/korjavin/teamslots/pkg/reminder"
	"github.com/korjavin/teamslots/pkg/schedule"
	"github.com/korjavin/teamslots/pkg/storage"
	"github.com/korjavin/teamslots/pkg/team"
	"github.com/korjavin/teamslots/pkg/telegram"
	"github.com/robfig/cron/v3"
)

func main() {
	// Initialize logger
	log := logger.Global
	defer log.Sync()

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warn("Ignoring LOG_LEVEL: %v", err)
	}
	log.Info("Starting %s...", cfg.BotDisplayName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// BadgerDB value log garbage collection
	gc := cron.New()
	if _, err := gc.AddFunc("@every "+cfg.GCInterval.String(), func() {
		if err := store.RunGC(); err != nil {
			log.Error("BadgerDB GC failed: %v", err)
		}
	}); err != nil {
		log.Error("Failed to schedule BadgerDB GC: %v", err)
		os.Exit(1)
	}
	gc.Start()
	defer gc.Stop()

	// Initialize services
	m := metrics.New("teamslots")
	resolver := clock.New(cfg.Location)
	registry := team.New(store)
	messageService := messages.New(cfg.BotDisplayName)

	// Initialize Telegram bot
	bot, err := telegram.New(cfg.BotToken, messageService)
	if err != nil {
		log.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	scheduleService := schedule.New(store, registry, resolver, bot, m)
	handlers := telegram.NewHandlers(bot, scheduleService, registry)

	reminders := reminder.New(store, registry, resolver, bot, m, reminder.Config{
		Interval: cfg.ReminderInterval,
		Window:   cfg.ReminderWindow,
	})
	if err := reminders.Start(ctx); err != nil {
		log.Error("Failed to start reminders: %v", err)
		os.Exit(1)
	}
	defer reminders.Stop()

	// Keepalive endpoint for the hosting platform
	server := keepalive.New(":"+cfg.Port, cfg.BotDisplayName, m.Registry)
	go func() {
		if err := server.Run(ctx); err != nil {
			log.Error("Keepalive server stopped: %v", err)
		}
	}()

	// Start the bot
	log.Info("Bot is now running. Press CTRL-C to exit.")
	if err := bot.Start(ctx, handlers.Commands(), handlers.Action); err != nil {
		log.Error("Error running bot: %v", err)
		os.Exit(1)
	}
	log.Info("Shutting down...")
}
