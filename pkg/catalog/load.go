package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CTAG07/Podium/pkg/memo"
	"gopkg.in/yaml.v3"
)

// timestampLayouts are tried in order. Layouts without an offset are read in
// the loader's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse decodes a catalog document and normalizes its dates in loc.
func Parse(data []byte, loc *time.Location) (*Catalog, error) {
	if loc == nil {
		loc = time.Local
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := normalize(KindTalks, c.Talks, loc); err != nil {
		return nil, err
	}
	if err := normalize(KindWorkshops, c.Workshops, loc); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalize checks every event first so that a missing timestamp anywhere
// aborts the load before anything is annotated.
func normalize(kind Kind, events []*Event, loc *time.Location) error {
	for i, e := range events {
		if e == nil || strings.TrimSpace(e.RawTimestamp) == "" {
			label := "empty record"
			if e != nil {
				label = e.label()
			}
			return fmt.Errorf("%w: %s[%d] (%s)", ErrMissingTimestamp, kind, i, label)
		}
	}
	for i, e := range events {
		t, err := parseTimestamp(e.RawTimestamp, loc)
		if err != nil {
			return fmt.Errorf("%s[%d] (%s): %w", kind, i, e.label(), err)
		}
		e.setTimestamp(t)
		e.Extra = stringKeys(e.Extra)
		if e.Presentation != nil {
			e.Presentation.Extra = stringKeys(e.Presentation.Extra)
		}
		if e.Video != nil {
			e.Video.Extra = stringKeys(e.Video.Extra)
		}
	}
	return nil
}

// stringKeys rewrites the map[any]any values yaml produces for mappings with
// non-string keys, at any depth, so every extra field encodes as JSON.
func stringKeys(extra map[string]any) map[string]any {
	for k, v := range extra {
		extra[k] = stringKeyValue(v)
	}
	return extra
}

func stringKeyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return stringKeys(v)
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = stringKeyValue(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = stringKeyValue(item)
		}
		return v
	default:
		return v
	}
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// Source loads the catalog file through the memo cache under the fixed key
// "database", so the process shares one normalized copy. A failed load is not
// cached and the next call retries.
type Source struct {
	path     string
	location *time.Location
	load     func(context.Context) (*Catalog, error)
}

// NewSource creates a Source reading path.
func NewSource(cache *memo.Cache, path string, loc *time.Location) *Source {
	s := &Source{path: path, location: loc}
	s.load = memo.Memoize0(cache, "database", s.read)
	return s
}

// Catalog returns the loaded catalog.
func (s *Source) Catalog(ctx context.Context) (*Catalog, error) {
	return s.load(ctx)
}

// Path returns the catalog file path.
func (s *Source) Path() string {
	return s.path
}

func (s *Source) read(_ context.Context) (*Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data, s.location)
}
