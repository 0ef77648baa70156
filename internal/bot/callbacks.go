package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdConfigs    = "configs"
	cmdTracks     = "tracks"
	cmdProgress   = "progress"
	cmdReset      = "reset"
	cmdPreview    = "preview"
	cmdRun        = "run"
	cmdDeliveries = "deliveries"

	actionResetConfirm = "reset_confirm"
	actionNoop         = "noop"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	data, err := parseCallbackData(cb.Data)
	if err != nil {
		b.log.Debug("ignore callback", "error", err)
		return
	}

	b.log.Info("callback",
		"action", data.Action,
		"config_id", data.ConfigID,
		"track", data.Track,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	idStr := strconv.FormatInt(data.ConfigID, 10)
	switch data.Action {
	case cmdTracks:
		b.handleTracks(ctx, chatID, idStr)
	case cmdPreview:
		b.handlePreview(ctx, chatID, idStr)
	case cmdRun:
		b.handleRun(ctx, chatID, idStr)
	case actionResetConfirm:
		name, ok := b.trackName(ctx, chatID, data)
		if !ok {
			return
		}
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Reset \"%s\" of #%d? It will start from the beginning.", name, data.ConfigID))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Yes, reset", callbackData{Action: cmdReset, ConfigID: data.ConfigID, Track: data.Track}.String()),
				tgbotapi.NewInlineKeyboardButtonData("Cancel", actionNoop+":0"),
			),
		)
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send reset confirmation", "error", err)
		}
	case cmdReset:
		name, ok := b.trackName(ctx, chatID, data)
		if !ok {
			return
		}
		b.resetTrack(ctx, chatID, data.ConfigID, name)
	}
}

// trackName resolves the track index of a callback. Indexes refer to the
// declared track order of the config row.
func (b *Bot) trackName(ctx context.Context, chatID int64, data callbackData) (string, bool) {
	cfg, ok := b.loadConfig(ctx, chatID, data.ConfigID)
	if !ok {
		return "", false
	}
	if data.Track < 0 || data.Track >= len(cfg.Tracks) {
		b.reply(chatID, fmt.Sprintf("Track not found in #%d.", data.ConfigID))
		return "", false
	}
	return cfg.Tracks[data.Track].Name, true
}
