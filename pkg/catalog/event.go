package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Kind names a section of the catalog. It doubles as the URL prefix of the
// section's pages.
type Kind string

const (
	KindTalks     Kind = "talks"
	KindWorkshops Kind = "workshops"
)

// Kinds lists every catalog section in display order.
var Kinds = []Kind{KindTalks, KindWorkshops}

// Valid reports whether k is a known catalog section.
func (k Kind) Valid() bool {
	return k == KindTalks || k == KindWorkshops
}

// PresentationType tags the variant of a presentation.
type PresentationType string

const (
	PresentationElm      PresentationType = "elm"
	PresentationReveal   PresentationType = "reveal.js"
	PresentationExternal PresentationType = "external"
)

// VideoType tags the variant of a video.
type VideoType string

const (
	VideoYouTube  VideoType = "youtube"
	VideoExternal VideoType = "external"
)

const (
	dateLayout = "2006-01-02"
)

// Event is one talk or workshop. Keys the model does not know about are kept
// in Extra so that templates can still reach them.
type Event struct {
	Slug         string         `yaml:"slug,omitempty"`
	Title        string         `yaml:"title,omitempty"`
	RawTimestamp string         `yaml:"timestamp"`
	Essay        bool           `yaml:"essay,omitempty"`
	Presentation *Presentation  `yaml:"presentation,omitempty"`
	Video        *Video         `yaml:"video,omitempty"`
	External     *External      `yaml:"external,omitempty"`
	Code         *Code          `yaml:"code,omitempty"`
	Extra        map[string]any `yaml:",inline"`

	// Computed once by the loader.
	Timestamp     time.Time `yaml:"-"`
	Date          string    `yaml:"-"`
	FormattedDate string    `yaml:"-"`
}

// Presentation is a slide deck. Only non-external types have a page of their own.
type Presentation struct {
	Type  PresentationType `yaml:"type"`
	Link  string           `yaml:"link,omitempty"`
	Extra map[string]any   `yaml:",inline"`
}

// Video is a recording. Only YouTube videos have a page of their own.
type Video struct {
	Type  VideoType      `yaml:"type"`
	Link  string         `yaml:"link,omitempty"`
	ID    string         `yaml:"id,omitempty"`
	Extra map[string]any `yaml:",inline"`
}

// External is a pure redirect record for events with no page of their own.
type External struct {
	Link string `yaml:"link"`
	Text string `yaml:"text,omitempty"`
}

// Code holds markdown rendering hints.
type Code struct {
	Language string `yaml:"language,omitempty"`
}

// Language returns the default syntax highlighting language, if any.
func (e *Event) Language() string {
	if e.Code == nil {
		return ""
	}
	return e.Code.Language
}

// Published reports whether the event has detail pages.
func (e *Event) Published() bool {
	return e.Slug != ""
}

// ContentFile is the markdown source of the event's essay and reveal.js slides,
// relative to the content directory.
func (e *Event) ContentFile(kind Kind) string {
	return fmt.Sprintf("%s/%s--%s.md", kind, e.Date, e.Slug)
}

// label identifies the event in error messages.
func (e *Event) label() string {
	switch {
	case e.Slug != "":
		return fmt.Sprintf("slug %q", e.Slug)
	case e.Title != "":
		return fmt.Sprintf("title %q", e.Title)
	default:
		return "untitled event"
	}
}

func (e *Event) setTimestamp(t time.Time) {
	e.Timestamp = t
	e.Date = t.Format(dateLayout)
	e.FormattedDate = formatDate(t)
}

// formatDate renders t as "Wednesday 1st March, 2017".
func formatDate(t time.Time) string {
	return fmt.Sprintf("%s %s %s, %d", t.Weekday(), humanize.Ordinal(t.Day()), t.Month(), t.Year())
}

// MarshalJSON flattens Extra next to the known fields, the same shape the
// catalog file has, plus the computed dates.
func (e *Event) MarshalJSON() ([]byte, error) {
	out := flatten(e.Extra)
	putString(out, "slug", e.Slug)
	putString(out, "title", e.Title)
	if !e.Timestamp.IsZero() {
		out["timestamp"] = e.Timestamp.Format(time.RFC3339)
	} else {
		putString(out, "timestamp", e.RawTimestamp)
	}
	putString(out, "date", e.Date)
	putString(out, "formattedDate", e.FormattedDate)
	if e.Essay {
		out["essay"] = true
	}
	if e.Presentation != nil {
		out["presentation"] = e.Presentation
	}
	if e.Video != nil {
		out["video"] = e.Video
	}
	if e.External != nil {
		out["external"] = e.External
	}
	if e.Code != nil {
		out["code"] = e.Code
	}
	return json.Marshal(out)
}

func (p *Presentation) MarshalJSON() ([]byte, error) {
	out := flatten(p.Extra)
	out["type"] = p.Type
	putString(out, "link", p.Link)
	return json.Marshal(out)
}

func (v *Video) MarshalJSON() ([]byte, error) {
	out := flatten(v.Extra)
	out["type"] = v.Type
	putString(out, "link", v.Link)
	putString(out, "id", v.ID)
	return json.Marshal(out)
}

func (x *External) MarshalJSON() ([]byte, error) {
	out := map[string]any{"link": x.Link}
	putString(out, "text", x.Text)
	return json.Marshal(out)
}

func (c *Code) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	putString(out, "language", c.Language)
	return json.Marshal(out)
}

func flatten(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+8)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func putString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
