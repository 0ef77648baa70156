// Package progress applies a track limit with an optional resumable cursor.
package progress

import "video_digest/internal/model"

// State of a progress record.
type State int

const (
	Fresh State = iota
	Active
	Stopped
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Active:
		return "active"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StateOf classifies a record. A missing record is Fresh.
func StateOf(p *model.Progress) State {
	switch {
	case p == nil || (p.Current == 0 && !p.IsStopped):
		return Fresh
	case p.IsStopped:
		return Stopped
	default:
		return Active
	}
}

// Result is the outcome of applying a limit.
type Result struct {
	Items []model.Item
	// Progress is the updated record, nil when the track has no progress.
	Progress *model.Progress
}

// Apply slices items according to limit, starting prev.Current items past
// the offset when a record exists. When limit.Progress is set the cursor
// prev is advanced, restarted (loop) or stopped; prev is never modified.
// A nil prev is treated as a fresh record named after track.
func Apply(track string, items []model.Item, limit model.Limit, prev *model.Progress) Result {
	base := limit.EffectiveOffset()
	count := limit.EffectiveCount()

	if limit.Progress == nil {
		offset := base
		if prev != nil {
			offset += prev.Current
		}
		return Result{Items: window(items, offset, count)}
	}

	next := model.Progress{Name: track}
	if prev != nil {
		next = *prev
		next.Name = track
	}
	if next.IsStopped {
		return Result{Progress: &next}
	}

	out := window(items, base+next.Current, count)
	if len(out) == 0 && limit.Loop() {
		next.Current = 0
		out = window(items, base, count)
	}
	if len(out) == 0 {
		if !limit.Loop() {
			next.IsStopped = true
		}
		return Result{Progress: &next}
	}

	next.Current += base + len(out)
	return Result{Items: out, Progress: &next}
}

// Reset returns a fresh record for track.
func Reset(track string) model.Progress {
	return model.Progress{Name: track}
}

func window(items []model.Item, offset, count int) []model.Item {
	if offset >= len(items) {
		return nil
	}
	end := offset + count
	if end > len(items) {
		end = len(items)
	}
	out := make([]model.Item, end-offset)
	copy(out, items[offset:end])
	return out
}
