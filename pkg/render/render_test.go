package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CTAG07/Podium/pkg/catalog"
	"github.com/CTAG07/Podium/pkg/memo"
	"github.com/CTAG07/Podium/pkg/templating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
talks:
  - slug: scaling-up
    title: Scaling Up
    timestamp: 2017-03-01T19:00:00Z
    essay: true
    presentation:
      type: reveal.js
    code:
      language: javascript
  - slug: elm-talk
    timestamp: 2018-01-01
    presentation:
      type: elm
  - slug: intro-talk
    timestamp: 2018-02-01
    video:
      type: external
      link: https://vimeo.com/1
  - slug: streamed
    timestamp: 2018-03-01
    video:
      type: youtube
      id: abc123
  - slug: prezi
    timestamp: 2018-04-01
    presentation:
      type: prezi
  - slug: vimeo-hosted
    timestamp: 2018-04-15
    video:
      type: vimeo
      id: "42"
  - slug: offsite
    timestamp: 2018-05-01
    presentation:
      type: external
      link: https://x
  - slug: listed-only
    timestamp: 2018-06-01
workshops:
  - slug: tdd
    title: TDD
    timestamp: 2019-01-01
  - slug: no-template
    timestamp: 2019-02-01
`

var testViews = map[string]string{
	"essay.tmpl.html":               `<article data-lang="{{.Event.Language}}"><h1>{{.Event.Title}}</h1>{{.Contents}}</article>`,
	"presentation-reveal.tmpl.html": `<div class="reveal">{{.Contents}}</div>`,
	"presentation-elm.tmpl.html":    `<div id="elm" data-slug="{{.Event.Slug}}"></div>`,
	"video.tmpl.html":               `<iframe src="https://www.youtube.com/embed/{{.Event.Video.ID}}"></iframe>`,
	"home.tmpl.html":                `{{range .Listing.UpcomingTalks}}{{.Slug}} {{end}}`,
	"events/tdd.tmpl.html":          `<h1>{{.Event.Title}} workshop</h1>`,
}

const essaySource = "# Scaling Up\n\n```\nconst x = 1;\n```\n"

type staticSource struct {
	catalog *catalog.Catalog
	err     error
}

func (s staticSource) Catalog(context.Context) (*catalog.Catalog, error) {
	return s.catalog, s.err
}

type fixture struct {
	renderer   *Renderer
	cache      *memo.Cache
	contentDir string
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func setup(t *testing.T, memoize bool, views map[string]string) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := catalog.Parse([]byte(testCatalog), time.UTC)
	require.NoError(t, err)

	viewsDir := t.TempDir()
	writeFiles(t, viewsDir, views)
	tm, err := templating.NewTemplateManager(logger, templating.DefaultConfig(), viewsDir)
	require.NoError(t, err)

	contentDir := t.TempDir()
	writeFiles(t, contentDir, map[string]string{
		"talks/2017-03-01--scaling-up.md": essaySource,
	})

	cache := memo.New(logger, memoize)
	return fixture{
		renderer:   New(logger, cache, staticSource{catalog: c}, tm, contentDir),
		cache:      cache,
		contentDir: contentDir,
	}
}

func TestRender_Essay(t *testing.T) {
	f := setup(t, true, testViews)

	res, err := f.renderer.Render(context.Background(), catalog.KindTalks, SubPageEssay, "scaling-up")
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `<article data-lang="javascript"><h1>Scaling Up</h1>`)
	assert.Contains(t, res.HTML, `<h1 id="scaling-up">Scaling Up</h1>`)
	assert.Contains(t, res.HTML, `<pre><code class="language-javascript">`, "falls back to the event's code language")
	assert.Empty(t, res.Redirect)
}

func TestRender_EssayMemoized(t *testing.T) {
	f := setup(t, true, testViews)
	ctx := context.Background()

	first, err := f.renderer.Render(ctx, catalog.KindTalks, SubPageEssay, "scaling-up")
	require.NoError(t, err)
	writeFiles(t, f.contentDir, map[string]string{"talks/2017-03-01--scaling-up.md": "# Changed\n"})
	second, err := f.renderer.Render(ctx, catalog.KindTalks, SubPageEssay, "scaling-up")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotContains(t, second.HTML, "Changed")
	assert.Positive(t, f.cache.Len())
}

func TestRender_EssayFreshWhenDisabled(t *testing.T) {
	f := setup(t, false, testViews)
	ctx := context.Background()

	_, err := f.renderer.Render(ctx, catalog.KindTalks, SubPageEssay, "scaling-up")
	require.NoError(t, err)
	writeFiles(t, f.contentDir, map[string]string{"talks/2017-03-01--scaling-up.md": "# Changed\n"})
	res, err := f.renderer.Render(ctx, catalog.KindTalks, SubPageEssay, "scaling-up")
	require.NoError(t, err)

	assert.Contains(t, res.HTML, `<h1 id="changed">Changed</h1>`)
	assert.Zero(t, f.cache.Len())
}

func TestRender_EssayNotFound(t *testing.T) {
	f := setup(t, true, testViews)
	ctx := context.Background()

	_, err := f.renderer.Render(ctx, catalog.KindTalks, SubPageEssay, "elm-talk")
	assert.ErrorIs(t, err, ErrNotFound, "event without essay")

	require.NoError(t, os.Remove(filepath.Join(f.contentDir, "talks", "2017-03-01--scaling-up.md")))
	_, err = f.renderer.Render(ctx, catalog.KindTalks, SubPageEssay, "scaling-up")
	assert.ErrorIs(t, err, ErrNotFound, "missing content file")
	assert.Zero(t, f.cache.Len(), "failures are not memoized")
}

func TestRender_UnknownSlug(t *testing.T) {
	f := setup(t, true, testViews)
	for _, page := range []SubPage{SubPageEssay, SubPagePresentation, SubPageVideo, SubPageRedirect, SubPageWorkshop} {
		_, err := f.renderer.Render(context.Background(), catalog.KindTalks, page, "unknown-slug")
		assert.ErrorIs(t, err, ErrNotFound, page)
		assert.ErrorIs(t, err, catalog.ErrNotFound, page)
	}
}

func TestRender_UnknownSubPage(t *testing.T) {
	f := setup(t, true, testViews)
	_, err := f.renderer.Render(context.Background(), catalog.KindTalks, SubPage("slides"), "scaling-up")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRender_Presentation(t *testing.T) {
	f := setup(t, true, testViews)
	ctx := context.Background()

	res, err := f.renderer.Render(ctx, catalog.KindTalks, SubPagePresentation, "scaling-up")
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `<div class="reveal"><h1 id="scaling-up">Scaling Up</h1>`)

	res, err = f.renderer.Render(ctx, catalog.KindTalks, SubPagePresentation, "elm-talk")
	require.NoError(t, err)
	assert.Equal(t, `<div id="elm" data-slug="elm-talk"></div>`, res.HTML)

	_, err = f.renderer.Render(ctx, catalog.KindTalks, SubPagePresentation, "offsite")
	assert.ErrorIs(t, err, ErrNotFound, "external presentations have no page")

	_, err = f.renderer.Render(ctx, catalog.KindTalks, SubPagePresentation, "streamed")
	assert.ErrorIs(t, err, ErrNotFound, "no presentation at all")
}

func TestRender_NonStringExtraKeys(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := catalog.Parse([]byte(`
talks:
  - slug: elm-talk
    timestamp: 2018-01-01
    ratings: {2019: 5}
    presentation:
      type: elm
`), time.UTC)
	require.NoError(t, err)

	viewsDir := t.TempDir()
	writeFiles(t, viewsDir, testViews)
	tm, err := templating.NewTemplateManager(logger, templating.DefaultConfig(), viewsDir)
	require.NoError(t, err)

	for _, memoize := range []bool{false, true} {
		r := New(logger, memo.New(logger, memoize), staticSource{catalog: c}, tm, t.TempDir())
		res, err := r.Render(context.Background(), catalog.KindTalks, SubPagePresentation, "elm-talk")
		require.NoError(t, err, "memoize=%v", memoize)
		assert.Equal(t, `<div id="elm" data-slug="elm-talk"></div>`, res.HTML)
	}
}

func TestRender_UnsupportedVariant(t *testing.T) {
	f := setup(t, true, testViews)

	_, err := f.renderer.Render(context.Background(), catalog.KindTalks, SubPagePresentation, "prezi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
	assert.NotErrorIs(t, err, ErrNotFound)

	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, catalog.KindTalks, rerr.Kind)
	assert.Equal(t, "prezi", rerr.Slug)
	assert.Equal(t, SubPagePresentation, rerr.Page)
	assert.Contains(t, err.Error(), `"prezi"`)
}

func TestRender_Video(t *testing.T) {
	f := setup(t, true, testViews)
	ctx := context.Background()

	res, err := f.renderer.Render(ctx, catalog.KindTalks, SubPageVideo, "streamed")
	require.NoError(t, err)
	assert.Equal(t, `<iframe src="https://www.youtube.com/embed/abc123"></iframe>`, res.HTML)

	_, err = f.renderer.Render(ctx, catalog.KindTalks, SubPageVideo, "intro-talk")
	assert.ErrorIs(t, err, ErrNotFound, "external videos have no page")

	_, err = f.renderer.Render(ctx, catalog.KindTalks, SubPageVideo, "vimeo-hosted")
	assert.ErrorIs(t, err, ErrNotFound, "only youtube videos have a page")
	assert.NotErrorIs(t, err, ErrUnsupportedVariant)

	_, err = f.renderer.Render(ctx, catalog.KindTalks, SubPageVideo, "scaling-up")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRender_Redirect(t *testing.T) {
	f := setup(t, true, testViews)
	ctx := context.Background()

	res, err := f.renderer.Render(ctx, catalog.KindTalks, SubPageRedirect, "offsite")
	require.NoError(t, err)
	assert.Equal(t, "https://x", res.Redirect)
	assert.Contains(t, res.HTML, `<link rel="canonical" href="https://x">`)
	assert.Contains(t, res.HTML, `http-equiv="refresh"`)

	res, err = f.renderer.Render(ctx, catalog.KindTalks, SubPageRedirect, "intro-talk")
	require.NoError(t, err)
	assert.Equal(t, "https://vimeo.com/1", res.Redirect)

	_, err = f.renderer.Render(ctx, catalog.KindTalks, SubPageRedirect, "scaling-up")
	assert.ErrorIs(t, err, ErrNotFound, "in-system primary pages need no stub")

	_, err = f.renderer.Render(ctx, catalog.KindTalks, SubPageRedirect, "listed-only")
	assert.ErrorIs(t, err, ErrNotFound, "nothing to link to")
}

func TestStub_Template(t *testing.T) {
	views := map[string]string{RedirectTemplate: `Moving to {{.Destination}}`}
	f := setup(t, true, views)

	html, err := f.renderer.Stub(context.Background(), "/talks/scaling-up/essay")
	require.NoError(t, err)
	assert.Equal(t, "Moving to /talks/scaling-up/essay", html)
}

func TestRender_Workshop(t *testing.T) {
	f := setup(t, true, testViews)
	ctx := context.Background()

	res, err := f.renderer.Render(ctx, catalog.KindWorkshops, SubPageWorkshop, "tdd")
	require.NoError(t, err)
	assert.Equal(t, "<h1>TDD workshop</h1>", res.HTML)

	_, err = f.renderer.Render(ctx, catalog.KindWorkshops, SubPageWorkshop, "no-template")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRender_TemplateFailure(t *testing.T) {
	views := map[string]string{VideoTemplate: `{{.Event.Nope}}`}
	f := setup(t, true, views)

	_, err := f.renderer.Render(context.Background(), catalog.KindTalks, SubPageVideo, "streamed")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, SubPageVideo, rerr.Page)
	assert.Contains(t, err.Error(), "Nope")
	assert.Zero(t, f.cache.Len())
}

func TestRender_CatalogFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loadErr := errors.New("disk on fire")
	r := New(logger, memo.New(logger, true), staticSource{err: loadErr}, nil, t.TempDir())

	_, err := r.Render(context.Background(), catalog.KindTalks, SubPageEssay, "scaling-up")
	assert.ErrorIs(t, err, loadErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPage(t *testing.T) {
	f := setup(t, true, testViews)
	ctx := context.Background()

	c, err := catalog.Parse([]byte(testCatalog), time.UTC)
	require.NoError(t, err)
	listing, err := c.Listing(time.Date(2018, 5, 1, 12, 0, 0, 0, time.UTC), catalog.DefaultPreviousRules())
	require.NoError(t, err)

	html, err := f.renderer.Page(ctx, "home", Page{Listing: listing})
	require.NoError(t, err)
	assert.Equal(t, "offsite listed-only ", html)

	_, err = f.renderer.Page(ctx, "bio", Page{})
	assert.ErrorIs(t, err, ErrNotFound)
}
