package render

import (
	"errors"
	"fmt"

	"github.com/CTAG07/Podium/pkg/catalog"
)

var (
	// ErrNotFound indicates an unknown slug or sub-page, or a sub-page whose
	// prerequisite is absent from the event. Servers answer 404.
	ErrNotFound = errors.New("render: not found")
	// ErrUnsupportedVariant indicates a presentation or video type the renderer
	// does not know. It is fatal for a static build.
	ErrUnsupportedVariant = errors.New("render: unsupported variant")
)

// RenderError reports a failed render with the event it was rendering. The
// underlying template or markdown error is kept unchanged.
type RenderError struct {
	Kind catalog.Kind
	Slug string
	Page SubPage
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s/%s (%s): %v", e.Kind, e.Slug, e.Page, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}
