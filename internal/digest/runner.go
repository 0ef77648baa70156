// Package digest runs the configured tracks of every config row and delivers
// the resulting sections.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"video_digest/internal/custom"
	"video_digest/internal/model"
	"video_digest/internal/notify"
	"video_digest/internal/provider"
	"video_digest/internal/schedule"
	"video_digest/internal/selector"
	"video_digest/internal/storage"
)

// Mailer sends a rendered digest to a list of addresses.
type Mailer interface {
	Send(ctx context.Context, recipients []string, msg *notify.Message) error
}

// ChatSender sends a text message to a Telegram chat.
type ChatSender interface {
	SendMessage(chatID int64, text string)
}

// Options tunes a Runner.
type Options struct {
	SubjectPrefix  string
	PointerBaseURL string
	// Location is the zone "now" is converted to before schedules are
	// matched. Nil means the zone of now itself.
	Location *time.Location
	DryRun   bool
	// SelectorOptions are passed to the selector of every run.
	SelectorOptions []selector.Option
}

// Summary describes what a run did.
type Summary struct {
	RunID     string
	Configs   int
	Delivered int
	Sections  int
	Failures  int
}

// Runner orchestrates digest runs. Runs and progress resets are
// serialized, so a run always reads the progress the previous one wrote.
type Runner struct {
	mu sync.Mutex

	store    storage.Storage
	gateway  provider.Gateway
	renderer *notify.Renderer
	mailer   Mailer
	chat     ChatSender
	log      *slog.Logger
	opts     Options
	newID    func() string
}

// New creates a Runner. mailer and chat may be nil when the channel is
// not configured.
func New(store storage.Storage, gw provider.Gateway, renderer *notify.Renderer, mailer Mailer, chat ChatSender, log *slog.Logger, opts Options) *Runner {
	return &Runner{
		store:    store,
		gateway:  gw,
		renderer: renderer,
		mailer:   mailer,
		chat:     chat,
		log:      log,
		opts:     opts,
		newID:    uuid.NewString,
	}
}

// SetChat replaces the chat sender.
func (r *Runner) SetChat(chat ChatSender) {
	r.chat = chat
}

type run struct {
	id  string
	log *slog.Logger
	sel *selector.Selector
	now time.Time
}

func (r *Runner) newRun(now time.Time) *run {
	id := r.newID()
	log := r.log.With("run_id", id)
	index := custom.NewIndex(r.store)
	merger := custom.NewMerger(index, r.opts.PointerBaseURL)
	sel := selector.New(r.gateway.WithRowSource(index), merger, log, r.opts.SelectorOptions...)
	if r.opts.Location != nil {
		now = now.In(r.opts.Location)
	}
	return &run{id: id, log: log, sel: sel, now: now}
}

// Run processes every config row whose tracks are due at now. A malformed
// row aborts the run before anything is sent.
func (r *Runner) Run(ctx context.Context, now time.Time) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn := r.newRun(now)
	sum := Summary{RunID: rn.id}

	configs, err := r.store.ListConfigs(ctx)
	if err != nil {
		return sum, fmt.Errorf("list configs: %w", err)
	}
	rn.log.Info("run started", "configs", len(configs), "dry_run", r.opts.DryRun)

	for i := range configs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r.process(ctx, rn, &configs[i], false, &sum)
	}

	rn.log.Info("run finished",
		"delivered", sum.Delivered,
		"sections", sum.Sections,
		"failures", sum.Failures,
	)
	return sum, nil
}

// RunConfig processes a single config row. force ignores track schedules.
func (r *Runner) RunConfig(ctx context.Context, id int64, now time.Time, force bool) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn := r.newRun(now)
	sum := Summary{RunID: rn.id}

	cfg, err := r.store.GetConfig(ctx, id)
	if err != nil {
		return sum, fmt.Errorf("get config %d: %w", id, err)
	}
	r.process(ctx, rn, cfg, force, &sum)
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

// ResetProgress removes the progress record of track in config id once no
// run is in flight.
func (r *Runner) ResetProgress(ctx context.Context, id int64, track string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.ResetProgress(ctx, id, track)
}

// Preview selects the sections config id would receive now, ignoring
// schedules. Nothing is sent and progress is not written.
func (r *Runner) Preview(ctx context.Context, id int64, now time.Time) ([]model.Section, error) {
	rn := r.newRun(now)
	cfg, err := r.store.GetConfig(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get config %d: %w", id, err)
	}
	sections, _, _, err := r.collect(ctx, rn, cfg, true)
	return sections, err
}

func (r *Runner) process(ctx context.Context, rn *run, cfg *model.DigestConfig, force bool, sum *Summary) {
	log := rn.log.With("config_id", cfg.ID)
	sum.Configs++

	sections, progresses, failures, err := r.collect(ctx, rn, cfg, force)
	sum.Failures += failures
	if err != nil {
		log.Warn("config interrupted", "error", err)
		return
	}

	if len(sections) > 0 {
		sum.Sections += len(sections)
		if r.deliver(ctx, rn, log, cfg, sections) {
			sum.Delivered++
		} else {
			sum.Failures++
		}
	}

	if r.opts.DryRun || slices.Equal(cfg.Progresses, progresses) {
		return
	}
	if err := r.store.UpdateProgresses(ctx, cfg.ID, progresses); err != nil {
		log.Error("write back progress", "error", err)
		sum.Failures++
	}
}

// collect evaluates the tracks of cfg in declared order. It returns the
// non-empty sections and the folded progress records. A failing track is
// logged and counted; only cancellation stops the loop.
func (r *Runner) collect(ctx context.Context, rn *run, cfg *model.DigestConfig, force bool) ([]model.Section, []model.Progress, int, error) {
	work := model.DigestConfig{Progresses: slices.Clone(cfg.Progresses)}
	var (
		sections []model.Section
		failures int
	)

	for _, track := range cfg.Tracks {
		if err := ctx.Err(); err != nil {
			return nil, nil, failures, err
		}
		log := rn.log.With(
			"config_id", cfg.ID,
			"recipients", []string(cfg.User.Email),
			"track", track.Name,
		)

		if !force {
			due, err := schedule.Due(track.Schedule, rn.now)
			if err != nil {
				log.Error("track schedule", "error", err)
				failures++
				continue
			}
			if !due {
				log.Debug("track not due")
				continue
			}
		}

		var prev *model.Progress
		if p, ok := work.ProgressFor(track.Name); ok {
			prev = &p
		}

		res, err := rn.sel.Select(ctx, track, cfg.Providers, prev)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, nil, failures, err
			}
			log.Error("track failed", "error", err)
			failures++
			continue
		}
		if res.Progress != nil {
			work.SetProgress(*res.Progress)
		}
		if len(res.Items) == 0 {
			log.Debug("track selected nothing")
			continue
		}
		log.Debug("track selected", "items", len(res.Items))
		sections = append(sections, model.Section{Name: track.Name, Items: res.Items})
	}
	return sections, work.Progresses, failures, nil
}

// deliver renders sections and hands them to mail and chat. It reports
// whether any channel accepted the digest.
func (r *Runner) deliver(ctx context.Context, rn *run, log *slog.Logger, cfg *model.DigestConfig, sections []model.Section) bool {
	subject := notify.Subject(cfg.User, r.opts.SubjectPrefix, sections)
	msg, err := r.renderer.Render(cfg.User, subject, sections)
	if err != nil {
		log.Error("render digest", "error", err)
		return false
	}

	if r.opts.DryRun {
		log.Info("dry run, digest not sent",
			"subject", subject,
			"recipients", []string(cfg.User.Email),
			"chats", cfg.User.TelegramChatIDs,
		)
		return true
	}

	var recipients []string
	if emails := []string(cfg.User.Email); len(emails) > 0 {
		if r.mailer == nil {
			log.Error("send digest", "error", "mail is not configured")
		} else if err := r.mailer.Send(ctx, emails, msg); err != nil {
			log.Error("send digest", "error", err)
		} else {
			recipients = append(recipients, emails...)
		}
	}

	if len(cfg.User.TelegramChatIDs) > 0 {
		if r.chat == nil {
			log.Error("send chat digest", "error", "telegram is not configured")
		} else {
			text := notify.PlainText(subject, sections)
			for _, chatID := range cfg.User.TelegramChatIDs {
				for _, chunk := range notify.ChatChunks(text, notify.MaxChatMessage) {
					r.chat.SendMessage(chatID, chunk)
				}
				recipients = append(recipients, "telegram:"+strconv.FormatInt(chatID, 10))
			}
		}
	}

	if len(recipients) == 0 {
		return false
	}

	d := &model.Delivery{
		ID:         r.newID(),
		RunID:      rn.id,
		ConfigID:   cfg.ID,
		Subject:    subject,
		Recipients: recipients,
		TrackNames: trackNames(sections),
	}
	if err := r.store.RecordDelivery(ctx, d); err != nil {
		log.Error("record delivery", "error", err)
	}
	log.Info("digest sent", "subject", subject, "recipients", len(recipients))
	return true
}

func trackNames(sections []model.Section) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return names
}
