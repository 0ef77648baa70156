// Command digest runs the digest job once, or on a cron trigger with -daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"video_digest/internal/app"
	"video_digest/internal/bot"
	"video_digest/internal/config"
	"video_digest/internal/scheduler"
)

func main() {
	daemon := flag.Bool("daemon", false, "keep running and trigger on TRIGGER_CRON")
	dryRun := flag.Bool("dry-run", false, "render and log digests without sending them")
	configID := flag.Int64("config", 0, "run only this config row, ignoring schedules")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}

	log := config.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *daemon, *configID, log); err != nil {
		log.Error("digest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, daemon bool, configID int64, log *slog.Logger) error {
	store, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runner, err := app.Runner(ctx, cfg, store, nil, log)
	if err != nil {
		return err
	}
	if cfg.Telegram.BotToken != "" {
		b, err := bot.New(cfg.Telegram.BotToken, store, runner, cfg, log)
		if err != nil {
			return err
		}
		runner.SetChat(b)
	}

	if configID != 0 {
		sum, err := runner.RunConfig(ctx, configID, time.Now(), true)
		if err != nil {
			return err
		}
		fmt.Println(bot.FormatSummary(configID, sum))
		return nil
	}

	sched, err := scheduler.New(runner, cfg.TriggerCron, cfg.Location(), log)
	if err != nil {
		return err
	}
	if !daemon {
		return sched.RunOnce(ctx)
	}
	log.Info("starting scheduler", "cron", cfg.TriggerCron)
	sched.Run(ctx)
	log.Info("scheduler stopped")
	return nil
}
