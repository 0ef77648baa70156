// Package bot is the Telegram admin bot. It inspects config rows, resets
// track progress, previews and forces digest runs, and delivers digests to
// chats.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"video_digest/internal/config"
	"video_digest/internal/digest"
	"video_digest/internal/model"
	"video_digest/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Runner previews and forces digest runs of a single config row.
type Runner interface {
	RunConfig(ctx context.Context, id int64, now time.Time, force bool) (digest.Summary, error)
	Preview(ctx context.Context, id int64, now time.Time) ([]model.Section, error)
	ResetProgress(ctx context.Context, id int64, track string) error
}

// Bot is the Telegram bot that handles admin commands and sends digests.
type Bot struct {
	api    telegramAPI
	store  storage.Storage
	runner Runner
	cfg    *config.Config
	log    *slog.Logger
	now    func() time.Time
}

// New creates a Bot with the given Telegram token, storage, runner and config.
func New(token string, store storage.Storage, runner Runner, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:    api,
		store:  store,
		runner: runner,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}, nil
}

// SetRunner replaces the runner used by /preview and /run.
func (b *Bot) SetRunner(r Runner) {
	b.runner = r
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || !b.cfg.IsUserAllowed(cb.From.ID) {
			return
		}
		b.handleCallback(ctx, cb)
		return
	}
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	if update.Message.From == nil || !b.cfg.IsUserAllowed(update.Message.From.ID) {
		b.reply(update.Message.Chat.ID, "Access denied.")
		return
	}
	b.handleCommand(ctx, update.Message)
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdConfigs:
		b.handleConfigs(ctx, chatID)
	case cmdTracks:
		b.handleTracks(ctx, chatID, args)
	case cmdProgress:
		b.handleProgress(ctx, chatID, args)
	case cmdReset:
		b.handleReset(ctx, chatID, args)
	case cmdPreview:
		b.handlePreview(ctx, chatID, args)
	case cmdRun:
		b.handleRun(ctx, chatID, args)
	case cmdDeliveries:
		b.handleDeliveries(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
