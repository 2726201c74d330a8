package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CTAG07/Podium/pkg/catalog"
	"github.com/CTAG07/Podium/pkg/memo"
	"github.com/CTAG07/Podium/pkg/render"
	"github.com/CTAG07/Podium/pkg/stylesheet"
	"github.com/CTAG07/Podium/pkg/templating"
)

// Site wires the catalog, views, renderer and stylesheets around one memo
// cache. The server and the static export each build their own.
type Site struct {
	config   *Config
	logger   *slog.Logger
	cache    *memo.Cache
	location *time.Location
	source   *catalog.Source
	tm       *templating.TemplateManager
	renderer *render.Renderer
	styles   *stylesheet.Compiler
	closers  []func() error
}

// NewSite creates a Site. memoize turns the cache on; tmplConfig selects
// served or exported links.
func NewSite(config *Config, logger *slog.Logger, memoize bool, tmplConfig templating.TemplateConfig, transpiler stylesheet.Transpiler) (*Site, error) {
	loc, err := config.Location()
	if err != nil {
		return nil, err
	}

	tmplConfig.AssetPrefix = config.Templates.AssetPrefix
	if config.Templates.StylesheetSuffix != "" {
		tmplConfig.StylesheetSuffix = config.Templates.StylesheetSuffix
	}
	tm, err := templating.NewTemplateManager(logger, tmplConfig, config.Site.ViewsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}

	s := &Site{
		config:   config,
		logger:   logger,
		cache:    memo.New(logger, memoize),
		location: loc,
		tm:       tm,
	}
	if transpiler == nil {
		sass := stylesheet.NewDartSass(config.Site.SassBinary)
		s.closers = append(s.closers, sass.Close)
		transpiler = sass
	}
	s.source = catalog.NewSource(s.cache, config.Site.CatalogPath, loc)
	s.renderer = render.New(logger, s.cache, s.source, tm, config.Site.ContentDir)
	s.styles = stylesheet.NewCompiler(config.Site.StylesDir, transpiler)
	return s, nil
}

// Stylesheet compiles <name>.scss, memoized under that description.
func (s *Site) Stylesheet(ctx context.Context, name string) (string, error) {
	return memo.Memoize0(s.cache, name+".scss", func(ctx context.Context) (string, error) {
		return s.styles.Compile(ctx, name)
	})(ctx)
}

// Listing loads the catalog and partitions it around now.
func (s *Site) Listing(ctx context.Context, now time.Time) (*catalog.Listing, error) {
	c, err := s.source.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return c.Listing(now.In(s.location), s.config.Site.PreviousRules)
}

// RefreshViews reloads the templates from disk while memoization is off, so
// edits show up on the next request.
func (s *Site) RefreshViews() error {
	if s.cache.Enabled() {
		return nil
	}
	return s.tm.Refresh()
}

// Close releases the stylesheet compiler.
func (s *Site) Close() error {
	var first error
	for _, closer := range s.closers {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
