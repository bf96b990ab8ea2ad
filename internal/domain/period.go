package domain

import (
	"fmt"
	"strings"
	"time"
)

// PeriodKind names a report window.
type PeriodKind string

const (
	PeriodToday       PeriodKind = "today"
	PeriodLast7Days   PeriodKind = "last-7-days"
	PeriodMonthToDate PeriodKind = "month-to-date"
	PeriodLast30Days  PeriodKind = "last-30-days"
	PeriodCustom      PeriodKind = "custom"
)

// DateLayout is the format of custom period bounds.
const DateLayout = "2006-01-02"

// PeriodKinds lists the supported periods in menu order.
func PeriodKinds() []PeriodKind {
	return []PeriodKind{PeriodToday, PeriodLast7Days, PeriodMonthToDate, PeriodLast30Days, PeriodCustom}
}

// ParsePeriodKind parses a period name. An empty string selects the
// thirty-day default.
func ParsePeriodKind(s string) (PeriodKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PeriodLast30Days, nil
	}

	for _, k := range PeriodKinds() {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: unknown period %q", ErrInvalidPeriod, s)
}

// Period is a report request. From and To are only used by custom periods.
type Period struct {
	Kind PeriodKind
	From string
	To   string
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Resolve turns the period into a concrete window. Calendar boundaries are
// taken in loc.
func (p Period) Resolve(now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	switch p.Kind {
	case PeriodToday:
		return Window{Start: startOfDay(now), End: now}, nil
	case PeriodLast7Days:
		return Window{Start: startOfDay(now.AddDate(0, 0, -6)), End: now}, nil
	case PeriodMonthToDate:
		return Window{Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), End: now}, nil
	case PeriodLast30Days, "":
		return Window{Start: now.AddDate(0, 0, -30), End: now}, nil
	case PeriodCustom:
		return p.resolveCustom(loc)
	default:
		return Window{}, fmt.Errorf("%w: unknown period %q", ErrInvalidPeriod, p.Kind)
	}
}

func (p Period) resolveCustom(loc *time.Location) (Window, error) {
	from, err := time.ParseInLocation(DateLayout, strings.TrimSpace(p.From), loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start %q is not a YYYY-MM-DD date", ErrInvalidPeriod, p.From)
	}

	to, err := time.ParseInLocation(DateLayout, strings.TrimSpace(p.To), loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end %q is not a YYYY-MM-DD date", ErrInvalidPeriod, p.To)
	}

	if to.Before(from) {
		return Window{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidPeriod, p.From, p.To)
	}

	return Window{Start: from, End: endOfDay(to)}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
