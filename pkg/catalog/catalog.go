package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Catalog maps each kind to its ordered events. It is built once per load and
// treated as read-only afterwards.
type Catalog struct {
	Talks     []*Event `yaml:"talks"`
	Workshops []*Event `yaml:"workshops"`
}

// Events returns the events of one kind in catalog order.
func (c *Catalog) Events(kind Kind) ([]*Event, error) {
	switch kind {
	case KindTalks:
		return c.Talks, nil
	case KindWorkshops:
		return c.Workshops, nil
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrNotFound, kind)
	}
}

// Find resolves a published event by kind and slug.
func (c *Catalog) Find(kind Kind, slug string) (*Event, error) {
	events, err := c.Events(kind)
	if err != nil {
		return nil, err
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: empty slug", ErrNotFound)
	}
	for _, e := range events {
		if e.Slug == slug {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, slug)
}

// PreviousRules selects the previous-event rule per kind.
type PreviousRules struct {
	Talks     PreviousRule `json:"talks"`
	Workshops PreviousRule `json:"workshops"`
}

// DefaultPreviousRules lists past events that have something to show.
func DefaultPreviousRules() PreviousRules {
	return PreviousRules{
		Talks:     RequireSlugOrExternal,
		Workshops: RequireSlugOrExternal,
	}
}

// For returns the rule configured for kind.
func (r PreviousRules) For(kind Kind) PreviousRule {
	switch kind {
	case KindWorkshops:
		return r.Workshops
	default:
		return r.Talks
	}
}

// Validate checks every rule.
func (r PreviousRules) Validate() error {
	if err := r.Talks.Validate(); err != nil {
		return fmt.Errorf("talks: %w", err)
	}
	if err := r.Workshops.Validate(); err != nil {
		return fmt.Errorf("workshops: %w", err)
	}
	return nil
}

// Listing is the view model of the home page.
type Listing struct {
	Catalog           *Catalog
	UpcomingTalks     []*Event
	PreviousTalks     []*Event
	UpcomingWorkshops []*Event
	PreviousWorkshops []*Event
}

// Listing partitions both kinds around now.
func (c *Catalog) Listing(now time.Time, rules PreviousRules) (*Listing, error) {
	talks, err := Partition(c.Talks, now, rules.For(KindTalks))
	if err != nil {
		return nil, fmt.Errorf("talks: %w", err)
	}
	workshops, err := Partition(c.Workshops, now, rules.For(KindWorkshops))
	if err != nil {
		return nil, fmt.Errorf("workshops: %w", err)
	}
	return &Listing{
		Catalog:           c,
		UpcomingTalks:     talks.Upcoming,
		PreviousTalks:     talks.Previous,
		UpcomingWorkshops: workshops.Upcoming,
		PreviousWorkshops: workshops.Previous,
	}, nil
}

// JSON renders the catalog as indented JSON, as served at /database.json.
func (c *Catalog) JSON() ([]byte, error) {
	talks, workshops := c.Talks, c.Workshops
	if talks == nil {
		talks = []*Event{}
	}
	if workshops == nil {
		workshops = []*Event{}
	}
	return json.MarshalIndent(map[string][]*Event{
		"talks":     talks,
		"workshops": workshops,
	}, "", "  ")
}
