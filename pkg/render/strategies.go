package render

import (
	"context"
	"fmt"
	"html/template"

	"github.com/CTAG07/Podium/pkg/catalog"
	"github.com/CTAG07/Podium/pkg/channel"
	"github.com/CTAG07/Podium/pkg/markdown"
	"github.com/CTAG07/Podium/pkg/memo"
)

func (r *Renderer) essay(ctx context.Context, kind catalog.Kind, e *catalog.Event) (Result, error) {
	if !e.Essay {
		return Result{}, notFound("%s/%s has no essay", kind, e.Slug)
	}
	html, err := r.markdownPage(ctx, EssayTemplate, kind, e)
	return Result{HTML: html}, err
}

func (r *Renderer) presentation(ctx context.Context, kind catalog.Kind, e *catalog.Event) (Result, error) {
	p := e.Presentation
	if p == nil {
		return Result{}, notFound("%s/%s has no presentation", kind, e.Slug)
	}
	switch p.Type {
	case catalog.PresentationElm:
		html, err := r.template(ctx, ElmTemplate, Page{Kind: kind, Event: e})
		return Result{HTML: html}, err
	case catalog.PresentationReveal:
		html, err := r.markdownPage(ctx, RevealTemplate, kind, e)
		return Result{HTML: html}, err
	case catalog.PresentationExternal:
		return Result{}, notFound("%s/%s presentation is hosted elsewhere", kind, e.Slug)
	default:
		return Result{}, fmt.Errorf("%w: presentation type %q", ErrUnsupportedVariant, p.Type)
	}
}

func (r *Renderer) video(ctx context.Context, kind catalog.Kind, e *catalog.Event) (Result, error) {
	v := e.Video
	if v == nil {
		return Result{}, notFound("%s/%s has no video", kind, e.Slug)
	}
	switch v.Type {
	case catalog.VideoYouTube:
		html, err := r.template(ctx, VideoTemplate, Page{Kind: kind, Event: e})
		return Result{HTML: html}, err
	default:
		return Result{}, notFound("%s/%s video (%s) has no page", kind, e.Slug, v.Type)
	}
}

// redirect serves events whose primary link leaves the site. Events with an
// in-system primary page are redirected by the router instead.
func (r *Renderer) redirect(ctx context.Context, kind catalog.Kind, e *catalog.Event) (Result, error) {
	link, ok := channel.PrimaryLink(string(kind), e)
	if !ok {
		return Result{}, notFound("%s/%s has nothing to link to", kind, e.Slug)
	}
	if channel.IsInternal(link) {
		return Result{}, notFound("%s/%s has a page of its own at %s", kind, e.Slug, link)
	}
	html, err := r.Stub(ctx, link)
	return Result{HTML: html, Redirect: link}, err
}

func (r *Renderer) workshop(ctx context.Context, kind catalog.Kind, e *catalog.Event) (Result, error) {
	name := WorkshopTemplate(e.Slug)
	if !r.views.Has(name) {
		return Result{}, notFound("no template %s", name)
	}
	html, err := r.template(ctx, name, Page{Kind: kind, Event: e})
	return Result{HTML: html}, err
}

// markdownPage compiles the event's content file into the named template. The
// whole pipeline is memoized as "<template> & <content file>".
func (r *Renderer) markdownPage(ctx context.Context, name string, kind catalog.Kind, e *catalog.Event) (string, error) {
	file := e.ContentFile(kind)
	return memo.Memoize1(r.cache, name+" & "+file, func(ctx context.Context, e *catalog.Event) (string, error) {
		source, err := r.readFile(ctx, file)
		if err != nil {
			return "", err
		}
		contents, err := markdown.Compile([]byte(source), e.Language())
		if err != nil {
			return "", err
		}
		return r.execute(name, Page{Kind: kind, Event: e, Contents: template.HTML(contents)})
	})(ctx, e)
}
