// Package schedule evaluates the per-track cron gate.
//
// The expression has five space separated fields: minute, hour, day of
// month, month (1-12) and day of week (0-6, Sunday is 0). Each field is a
// literal integer or unconstrained. Ranges, lists and steps are not
// supported.
//
// A field equal to 0 is unconstrained: "0 14 * * *" fires on every minute
// between 14:00 and 14:59.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"video_digest/internal/model"
)

// ErrInvalidCron is returned for an expression without five fields.
var ErrInvalidCron = errors.New("invalid cron expression")

// Field is one cron field. Set is false when the field is unconstrained.
type Field struct {
	Value int
	Set   bool
}

func (f Field) matches(v int) bool {
	return !f.Set || f.Value == v
}

// Spec is a parsed cron expression.
type Spec struct {
	Minute     Field
	Hour       Field
	DayOfMonth Field
	Month      Field
	DayOfWeek  Field
}

// Parse parses a five field expression.
func Parse(expr string) (Spec, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Spec{}, fmt.Errorf("%w %q: expected 5 fields, got %d", ErrInvalidCron, expr, len(fields))
	}
	return Spec{
		Minute:     parseField(fields[0]),
		Hour:       parseField(fields[1]),
		DayOfMonth: parseField(fields[2]),
		Month:      parseField(fields[3]),
		DayOfWeek:  parseField(fields[4]),
	}, nil
}

func parseField(s string) Field {
	v, err := strconv.Atoi(s)
	if err != nil || v == 0 {
		return Field{}
	}
	return Field{Value: v, Set: true}
}

// Matches reports whether t satisfies every constrained field.
func (s Spec) Matches(t time.Time) bool {
	return s.Minute.matches(t.Minute()) &&
		s.Hour.matches(t.Hour()) &&
		s.DayOfMonth.matches(t.Day()) &&
		s.Month.matches(int(t.Month())) &&
		s.DayOfWeek.matches(int(t.Weekday()))
}

// Due reports whether a track with the given schedule runs at now.
// A nil schedule is always due. A timezone, when set, converts now
// into that zone before matching.
func Due(sch *model.Schedule, now time.Time) (bool, error) {
	if sch == nil || strings.TrimSpace(sch.Cron) == "" {
		return true, nil
	}
	spec, err := Parse(sch.Cron)
	if err != nil {
		return false, err
	}
	if sch.Timezone != "" {
		loc, err := time.LoadLocation(sch.Timezone)
		if err != nil {
			return false, fmt.Errorf("load timezone %q: %w", sch.Timezone, err)
		}
		now = now.In(loc)
	}
	return spec.Matches(now), nil
}
