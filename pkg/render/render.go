// Package render turns a catalog event and a requested sub-page into HTML.
//
// Each sub-page has its own strategy: plain template, markdown compiled into a
// template, or a redirect stub. Every I/O-bound step runs through the memo
// cache handed to New, so a production process renders each page once.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/CTAG07/Podium/pkg/catalog"
	"github.com/CTAG07/Podium/pkg/channel"
	"github.com/CTAG07/Podium/pkg/memo"
	"github.com/CTAG07/Podium/pkg/templating"
)

// SubPage names a representation of an event.
type SubPage string

const (
	SubPageEssay        = SubPage(channel.PageEssay)
	SubPagePresentation = SubPage(channel.PagePresentation)
	SubPageVideo        = SubPage(channel.PageVideo)
	SubPageRedirect     SubPage = "redirect"
	SubPageWorkshop     SubPage = "workshop"
)

// Template names looked up in the views directory.
const (
	EssayTemplate    = "essay.tmpl.html"
	ElmTemplate      = "presentation-elm.tmpl.html"
	RevealTemplate   = "presentation-reveal.tmpl.html"
	VideoTemplate    = "video.tmpl.html"
	RedirectTemplate = "redirect.tmpl.html"
)

// WorkshopTemplate is the name of the template of one workshop.
func WorkshopTemplate(slug string) string {
	return templating.EventTemplateDir + "/" + slug + ".tmpl.html"
}

// Source provides the catalog.
type Source interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
}

// Views executes named templates.
type Views interface {
	Execute(w io.Writer, name string, data any) error
	Has(name string) bool
}

// Page is the data every template receives. Only the fields that apply to a
// template are set.
type Page struct {
	Kind        catalog.Kind     `json:"kind,omitempty"`
	Event       *catalog.Event   `json:"event,omitempty"`
	Contents    template.HTML    `json:"contents,omitempty"`
	Destination string           `json:"destination,omitempty"`
	Listing     *catalog.Listing `json:"listing,omitempty"`
}

// Result is a rendered sub-page. Redirect is set for redirect stubs and holds
// the destination the stub forwards to.
type Result struct {
	HTML     string
	Redirect string
}

// Renderer dispatches render requests to their strategies.
type Renderer struct {
	logger     *slog.Logger
	cache      *memo.Cache
	source     Source
	views      Views
	contentDir string
	readFile   func(context.Context, string) (string, error)
}

// New creates a Renderer. Markdown sources are read from contentDir.
func New(logger *slog.Logger, cache *memo.Cache, source Source, views Views, contentDir string) *Renderer {
	r := &Renderer{
		logger:     logger,
		cache:      cache,
		source:     source,
		views:      views,
		contentDir: contentDir,
	}
	r.readFile = memo.Memoize1(cache, "read file", r.read)
	return r
}

// Render renders one sub-page of the event kind/slug.
func (r *Renderer) Render(ctx context.Context, kind catalog.Kind, page SubPage, slug string) (Result, error) {
	c, err := r.source.Catalog(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	e, err := c.Find(kind, slug)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var res Result
	switch page {
	case SubPageEssay:
		res, err = r.essay(ctx, kind, e)
	case SubPagePresentation:
		res, err = r.presentation(ctx, kind, e)
	case SubPageVideo:
		res, err = r.video(ctx, kind, e)
	case SubPageRedirect:
		res, err = r.redirect(ctx, kind, e)
	case SubPageWorkshop:
		res, err = r.workshop(ctx, kind, e)
	default:
		return Result{}, notFound("sub-page %q of %s/%s", page, kind, slug)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{}, err
		}
		return Result{}, &RenderError{Kind: kind, Slug: slug, Page: page, Err: err}
	}
	return res, nil
}

// Page renders a top-level page such as "home" from <name>.tmpl.html.
func (r *Renderer) Page(ctx context.Context, name string, data Page) (string, error) {
	tmpl := name + ".tmpl.html"
	if !r.views.Has(tmpl) {
		return "", notFound("page %q", name)
	}
	return r.template(ctx, tmpl, data)
}

// Stub renders a page that forwards the browser to destination. It uses
// redirect.tmpl.html when the views provide one.
func (r *Renderer) Stub(ctx context.Context, destination string) (string, error) {
	if r.views.Has(RedirectTemplate) {
		return r.template(ctx, RedirectTemplate, Page{Destination: destination})
	}
	return memo.Memoize1(r.cache, "redirect stub", func(_ context.Context, destination string) (string, error) {
		var buf bytes.Buffer
		if err := stubTemplate.Execute(&buf, destination); err != nil {
			return "", err
		}
		return buf.String(), nil
	})(ctx, destination)
}

var stubTemplate = template.Must(template.New("stub").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting…</title>
<link rel="canonical" href="{{.}}">
<meta http-equiv="refresh" content="0; url={{.}}">
</head>
<body>
<p>This page has moved to <a href="{{.}}">{{.}}</a>.</p>
</body>
</html>
`))

// template renders a plain template, memoized by template name and data.
func (r *Renderer) template(ctx context.Context, name string, data Page) (string, error) {
	return memo.Memoize1(r.cache, name, func(_ context.Context, data Page) (string, error) {
		return r.execute(name, data)
	})(ctx, data)
}

func (r *Renderer) execute(name string, data Page) (string, error) {
	var buf bytes.Buffer
	if err := r.views.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// read returns a content file. file is relative to the content directory.
func (r *Renderer) read(_ context.Context, file string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.contentDir, filepath.FromSlash(file)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", notFound("content file %s", file)
		}
		return "", err
	}
	return string(data), nil
}
