package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"video_digest/internal/model"
	"video_digest/internal/notify"
	"video_digest/internal/storage"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the Video Digest admin bot!

Inspect digest configs, reset track progress and trigger runs.

Quick start:
1. /configs — list digest configs
2. /tracks <id> — tracks and their progress
3. /preview <id> — what the next digest would contain

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Configs:
/configs — list digest configs
/tracks <id> — tracks of a config
/progress <id> — stored progress records
/reset <id> <track> — restart a track from the beginning

Runs:
/preview <id> — show the digest without sending it
/run <id> — send the digest now, ignoring schedules
/deliveries <id> [count] — recent deliveries (default 5)`)
}

// loadConfig fetches a config row, replying with the failure if there is one.
func (b *Bot) loadConfig(ctx context.Context, chatID, id int64) (*model.DigestConfig, bool) {
	cfg, err := b.store.GetConfig(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.reply(chatID, fmt.Sprintf("Config #%d not found.", id))
		return nil, false
	case err != nil:
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return nil, false
	}
	return cfg, true
}

func (b *Bot) handleConfigs(ctx context.Context, chatID int64) {
	configs, err := b.store.ListConfigs(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatConfigList(configs))
	msg.DisableWebPagePreview = true
	if len(configs) > 0 {
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, c := range configs {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("#%d tracks", c.ID), callbackData{Action: cmdTracks, ConfigID: c.ID, Track: -1}.String()),
				tgbotapi.NewInlineKeyboardButtonData("Preview", callbackData{Action: cmdPreview, ConfigID: c.ID, Track: -1}.String()),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send config list", "error", err)
	}
}

func (b *Bot) handleTracks(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /tracks <id>")
		return
	}
	cfg, ok := b.loadConfig(ctx, chatID, id)
	if !ok {
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatTracks(cfg))
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, t := range cfg.Tracks {
		if t.Limit.Progress == nil {
			continue
		}
		if _, ok := cfg.ProgressFor(t.Name); !ok {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Reset "+t.Name, callbackData{Action: actionResetConfirm, ConfigID: id, Track: i}.String()),
		))
	}
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send tracks", "error", err)
	}
}

func (b *Bot) handleProgress(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /progress <id>")
		return
	}
	cfg, ok := b.loadConfig(ctx, chatID, id)
	if !ok {
		return
	}
	b.reply(chatID, FormatProgress(cfg))
}

func (b *Bot) handleReset(ctx context.Context, chatID int64, args string) {
	id, track, err := ParseResetArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	b.resetTrack(ctx, chatID, id, track)
}

func (b *Bot) resetTrack(ctx context.Context, chatID, id int64, track string) {
	err := b.runner.ResetProgress(ctx, id, track)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.reply(chatID, fmt.Sprintf("No progress for \"%s\" in #%d.", track, id))
		return
	case err != nil:
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.log.Info("progress reset", "config_id", id, "track", track, "chat_id", chatID)
	b.reply(chatID, fmt.Sprintf("Track \"%s\" of #%d will start from the beginning.", track, id))
}

func (b *Bot) handlePreview(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /preview <id>")
		return
	}
	cfg, ok := b.loadConfig(ctx, chatID, id)
	if !ok {
		return
	}

	sections, err := b.runner.Preview(ctx, id, b.now())
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Preview failed: %v", err))
		return
	}
	if len(sections) == 0 {
		b.reply(chatID, fmt.Sprintf("Nothing to send for #%d.", id))
		return
	}

	subject := notify.Subject(cfg.User, b.cfg.SubjectPrefix, sections)
	for _, chunk := range notify.ChatChunks(notify.PlainText(subject, sections), notify.MaxChatMessage) {
		b.reply(chatID, chunk)
	}
}

func (b *Bot) handleRun(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /run <id>")
		return
	}
	if _, ok := b.loadConfig(ctx, chatID, id); !ok {
		return
	}

	sum, err := b.runner.RunConfig(ctx, id, b.now(), true)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Run failed: %v", err))
		return
	}
	b.log.Info("forced run", "config_id", id, "run_id", sum.RunID, "chat_id", chatID)
	b.reply(chatID, FormatSummary(id, sum))
}

func (b *Bot) handleDeliveries(ctx context.Context, chatID int64, args string) {
	id, n, err := ParseDeliveriesArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	deliveries, err := b.store.ListDeliveries(ctx, id, n)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatDeliveries(id, deliveries))
}
