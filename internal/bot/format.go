package bot

import (
	"fmt"
	"strings"

	"video_digest/internal/digest"
	"video_digest/internal/model"
	"video_digest/internal/progress"
)

// FormatConfigList formats the config rows for display.
func FormatConfigList(configs []model.DigestConfig) string {
	if len(configs) == 0 {
		return "No digest configs yet. Import one with the metadata tool."
	}
	var b strings.Builder
	b.WriteString("Digest configs:\n")
	for _, c := range configs {
		fmt.Fprintf(&b, "\n#%d %s\n", c.ID, recipientLabel(c.User))
		fmt.Fprintf(&b, "   %d tracks, %d providers\n", len(c.Tracks), len(c.Providers))
	}
	return b.String()
}

func recipientLabel(u model.User) string {
	var parts []string
	parts = append(parts, u.Email...)
	for _, id := range u.TelegramChatIDs {
		parts = append(parts, fmt.Sprintf("chat %d", id))
	}
	if len(parts) == 0 {
		return "(no recipients)"
	}
	return strings.Join(parts, ", ")
}

// FormatTracks formats the tracks of a config with their progress.
func FormatTracks(cfg *model.DigestConfig) string {
	if len(cfg.Tracks) == 0 {
		return fmt.Sprintf("Config #%d has no tracks.", cfg.ID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tracks of #%d:\n", cfg.ID)
	for i, t := range cfg.Tracks {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, t.Name)
		fmt.Fprintf(&b, "   select: %s\n", strings.Join(selectKinds(t.Select), ", "))
		if t.Filter != nil && t.Filter.TagExpression != "" {
			fmt.Fprintf(&b, "   filter: %s\n", t.Filter.TagExpression)
		}
		if t.Sort != nil && t.Sort.By != "" {
			order := t.Sort.Order
			if order == "" {
				order = model.OrderAsc
			}
			fmt.Fprintf(&b, "   sort: %s %s\n", t.Sort.By, order)
		}
		fmt.Fprintf(&b, "   limit: offset %d, count %d\n", t.Limit.EffectiveOffset(), t.Limit.EffectiveCount())
		if t.Schedule != nil && t.Schedule.Cron != "" {
			fmt.Fprintf(&b, "   schedule: %s", t.Schedule.Cron)
			if t.Schedule.Timezone != "" {
				fmt.Fprintf(&b, " (%s)", t.Schedule.Timezone)
			}
			b.WriteString("\n")
		}
		if t.Limit.Progress != nil {
			fmt.Fprintf(&b, "   progress: %s\n", progressLabel(cfg, t))
		}
	}
	return b.String()
}

func selectKinds(sel model.Select) []string {
	var kinds []string
	if sel.YouTube != nil {
		kinds = append(kinds, string(model.ProviderYouTube))
	}
	if sel.GooglePhotos != nil {
		kinds = append(kinds, string(model.ProviderGooglePhotos))
	}
	if sel.Vimeo != nil {
		kinds = append(kinds, string(model.ProviderVimeo))
	}
	if sel.Custom != nil {
		kinds = append(kinds, string(model.ProviderCustom))
	}
	if len(kinds) == 0 {
		return []string{"nothing"}
	}
	return kinds
}

func progressLabel(cfg *model.DigestConfig, t model.Track) string {
	p, ok := cfg.ProgressFor(t.Name)
	if !ok {
		return progress.Fresh.String()
	}
	label := fmt.Sprintf("%s at %d", progress.StateOf(&p), p.Current)
	if t.Limit.Loop() {
		label += ", loops"
	}
	return label
}

// FormatProgress formats the stored progress records of a config.
func FormatProgress(cfg *model.DigestConfig) string {
	if len(cfg.Progresses) == 0 {
		return fmt.Sprintf("No progress recorded for #%d.", cfg.ID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Progress of #%d:\n", cfg.ID)
	for _, p := range cfg.Progresses {
		fmt.Fprintf(&b, "  %s: %s at %d\n", p.Name, progress.StateOf(&p), p.Current)
	}
	return b.String()
}

// FormatSummary formats the outcome of a forced run.
func FormatSummary(id int64, sum digest.Summary) string {
	if sum.Sections == 0 {
		return fmt.Sprintf("Run %s: nothing to send for #%d.", sum.RunID, id)
	}
	status := "sent"
	if sum.Delivered == 0 {
		status = "not delivered"
	}
	msg := fmt.Sprintf("Run %s: %d section(s) %s for #%d.", sum.RunID, sum.Sections, status, id)
	if sum.Failures > 0 {
		msg += fmt.Sprintf("\n%d failure(s), see logs.", sum.Failures)
	}
	return msg
}

// FormatDeliveries formats the delivery log of a config.
func FormatDeliveries(id int64, deliveries []model.Delivery) string {
	if len(deliveries) == 0 {
		return fmt.Sprintf("No deliveries for #%d yet.", id)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Deliveries of #%d:\n", id)
	for _, d := range deliveries {
		fmt.Fprintf(&b, "\n%s %s\n", d.SentAt.Format("2006-01-02 15:04 UTC"), d.Subject)
		fmt.Fprintf(&b, "   to: %s\n", strings.Join(d.Recipients, ", "))
	}
	return b.String()
}
