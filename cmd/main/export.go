package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/CTAG07/Podium/pkg/catalog"
	"github.com/CTAG07/Podium/pkg/channel"
	"github.com/CTAG07/Podium/pkg/markdown"
	"github.com/CTAG07/Podium/pkg/render"
	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"
)

// exportJob produces one output file, path relative to the output directory.
type exportJob struct {
	path   string
	render func(ctx context.Context) ([]byte, error)
}

// Exporter writes the whole site to a directory. Any failure aborts the build.
type Exporter struct {
	config *Config
	logger *slog.Logger
	site   *Site
	now    func() time.Time
}

func NewExporter(config *Config, logger *slog.Logger, site *Site) *Exporter {
	return &Exporter{
		config: config,
		logger: logger,
		site:   site,
		now:    time.Now,
	}
}

// Export renders every page and writes it under the output directory. It
// returns the number of files written.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	c, err := e.site.source.Catalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load catalog: %w", err)
	}

	jobs := e.topLevelJobs()
	jobs = append(jobs, e.eventJobs(c)...)
	styles, err := e.stylesheetJobs()
	if err != nil {
		return 0, err
	}
	jobs = append(jobs, styles...)
	jobs = append(jobs, e.staticJobs()...)

	limit := e.config.Build.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, job := range jobs {
		g.Go(func() error {
			data, err := job.render(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", job.path, err)
			}
			return e.write(job.path, data)
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}
	return len(jobs), nil
}

func (e *Exporter) write(rel string, data []byte) error {
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return fmt.Errorf("refusing to write outside the output directory: %q", rel)
	}
	path := filepath.Join(e.config.Build.OutDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	e.logger.Debug("Wrote file", "path", rel, "bytes", len(data))
	return nil
}

func (e *Exporter) topLevelJobs() []exportJob {
	jobs := []exportJob{
		{path: "database.json", render: func(ctx context.Context) ([]byte, error) {
			c, err := e.site.source.Catalog(ctx)
			if err != nil {
				return nil, err
			}
			return c.JSON()
		}},
		{path: "highlight.css", render: func(context.Context) ([]byte, error) {
			var buf bytes.Buffer
			err := markdown.WriteStylesheet(&buf, e.config.Site.HighlightStyle)
			return buf.Bytes(), err
		}},
	}
	for _, page := range []struct{ name, path string }{{"home", "index.html"}, {"bio", "bio.html"}} {
		if !e.site.tm.Has(page.name + ".tmpl.html") {
			e.logger.Warn("Skipping page without a template", "page", page.name)
			continue
		}
		jobs = append(jobs, exportJob{path: page.path, render: func(ctx context.Context) ([]byte, error) {
			listing, err := e.site.Listing(ctx, e.now())
			if err != nil {
				return nil, err
			}
			html, err := e.site.renderer.Page(ctx, page.name, render.Page{Listing: listing})
			return []byte(html), err
		}})
	}
	return jobs
}

// eventJobs covers the short URL stub, the sub-pages and the workshop page of
// every event.
func (e *Exporter) eventJobs(c *catalog.Catalog) []exportJob {
	var jobs []exportJob
	for _, kind := range catalog.Kinds {
		events, err := c.Events(kind)
		if err != nil {
			continue
		}
		prefix := string(kind)
		for _, ev := range events {
			if ev.Slug == "" {
				continue
			}
			slug := ev.Slug
			if link, ok := channel.Exported.Primary(prefix, ev); ok {
				jobs = append(jobs, exportJob{path: prefix + "/" + slug + "/index.html", render: func(ctx context.Context) ([]byte, error) {
					html, err := e.site.renderer.Stub(ctx, link)
					return []byte(html), err
				}})
			}
			for _, page := range channel.Pages(ev) {
				jobs = append(jobs, exportJob{path: prefix + "/" + slug + "/" + string(page) + ".html", render: e.renderJob(kind, render.SubPage(page), slug)})
			}
			if kind == catalog.KindWorkshops && e.site.tm.Has(render.WorkshopTemplate(slug)) {
				jobs = append(jobs, exportJob{path: prefix + "/" + slug + ".html", render: e.renderJob(kind, render.SubPageWorkshop, slug)})
			}
		}
	}
	return jobs
}

func (e *Exporter) renderJob(kind catalog.Kind, page render.SubPage, slug string) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		res, err := e.site.renderer.Render(ctx, kind, page, slug)
		return []byte(res.HTML), err
	}
}

// stylesheetJobs compiles every top-level stylesheet source. Names starting
// with an underscore are partials and only reached through imports.
func (e *Exporter) stylesheetJobs() ([]exportJob, error) {
	entries, err := os.ReadDir(e.config.Site.StylesDir)
	if err != nil {
		if os.IsNotExist(err) {
			e.logger.Warn("Styles directory not found, skipping stylesheets", "dir", e.config.Site.StylesDir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list stylesheets: %w", err)
	}

	names := map[string]bool{}
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || strings.HasPrefix(file, "_") || strings.HasPrefix(file, ".") {
			continue
		}
		ext := filepath.Ext(file)
		if ext != ".scss" && ext != ".css" {
			continue
		}
		names[strings.TrimSuffix(file, ext)] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	jobs := make([]exportJob, 0, len(sorted))
	for _, name := range sorted {
		jobs = append(jobs, exportJob{path: name + ".css", render: func(ctx context.Context) ([]byte, error) {
			css, err := e.site.Stylesheet(ctx, name)
			return []byte(css), err
		}})
	}
	return jobs, nil
}

// staticJobs copies the static file table. Entries whose source is missing are
// skipped with a warning.
func (e *Exporter) staticJobs() []exportJob {
	paths := make([]string, 0, len(e.config.Site.StaticFiles))
	for path := range e.config.Site.StaticFiles {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var jobs []exportJob
	for _, path := range paths {
		source := filepath.Join(e.config.Site.AssetsDir, filepath.FromSlash(e.config.Site.StaticFiles[path].Path))
		if _, err := os.Stat(source); err != nil {
			e.logger.Warn("Skipping static file", "path", path, "error", err)
			continue
		}
		jobs = append(jobs, exportJob{path: strings.TrimPrefix(path, "/"), render: func(context.Context) ([]byte, error) {
			return os.ReadFile(source)
		}})
	}
	return jobs
}
