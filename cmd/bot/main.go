package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"video_digest/internal/app"
	"video_digest/internal/bot"
	"video_digest/internal/config"
	"video_digest/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireTelegram(); err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := config.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := app.OpenStore(cfg)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	runner, err := app.Runner(ctx, cfg, store, nil, log)
	if err != nil {
		log.Error("create runner", "error", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg.Telegram.BotToken, store, runner, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}
	runner.SetChat(b)

	sched, err := scheduler.New(runner, cfg.TriggerCron, cfg.Location(), log)
	if err != nil {
		log.Error("create scheduler", "error", err)
		os.Exit(1)
	}

	log.Info("starting bot", "cron", cfg.TriggerCron)

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}
