package catalog

import (
	"fmt"
	"time"
)

// PreviousRule decides which past events are still worth listing.
type PreviousRule string

const (
	RequireSlugOrExternal PreviousRule = "slug-or-external"
	RequireSlug           PreviousRule = "slug"
	RequireExternal       PreviousRule = "external"
	RequireNothing        PreviousRule = "all"
)

// Validate rejects unknown rules. The empty rule means the default.
func (r PreviousRule) Validate() error {
	switch r {
	case "", RequireSlugOrExternal, RequireSlug, RequireExternal, RequireNothing:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRule, string(r))
	}
}

// Keep reports whether a past event passes the rule.
func (r PreviousRule) Keep(e *Event) bool {
	switch r {
	case RequireSlug:
		return e.Slug != ""
	case RequireExternal:
		return e.External != nil
	case RequireNothing:
		return true
	default:
		return e.Slug != "" || e.External != nil
	}
}

// Partitioned holds events split around the start of today.
type Partitioned struct {
	Upcoming []*Event
	Previous []*Event
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Partition splits events into upcoming (at or after the start of now's day)
// and previous, filtering previous by rule. Input order is preserved.
func Partition(events []*Event, now time.Time, rule PreviousRule) (Partitioned, error) {
	today := StartOfDay(now)
	p := Partitioned{Upcoming: []*Event{}, Previous: []*Event{}}
	for i, e := range events {
		if e.Timestamp.IsZero() {
			return Partitioned{}, fmt.Errorf("%w: event %d (%s)", ErrMissingTimestamp, i, e.label())
		}
		if !e.Timestamp.Before(today) {
			p.Upcoming = append(p.Upcoming, e)
			continue
		}
		if rule.Keep(e) {
			p.Previous = append(p.Previous, e)
		}
	}
	return p, nil
}
