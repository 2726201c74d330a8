package main

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CTAG07/Podium/pkg/catalog"
	"github.com/CTAG07/Podium/pkg/channel"
	"github.com/CTAG07/Podium/pkg/markdown"
	"github.com/CTAG07/Podium/pkg/render"
	"github.com/CTAG07/Podium/pkg/stylesheet"
)

// Server routes requests to the site. stats is nil when request stats are
// disabled.
type Server struct {
	config *Config
	logger *slog.Logger
	site   *Site
	stats  *StatsAPI
	mux    *http.ServeMux
	now    func() time.Time
}

func NewServer(config *Config, logger *slog.Logger, site *Site, stats *StatsAPI) *Server {
	server := &Server{
		config: config,
		logger: logger,
		site:   site,
		stats:  stats,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}

	server.mux.HandleFunc("GET /health", server.handleHealthCheck)
	server.mux.HandleFunc("GET /{$}", server.handlePage("home"))
	server.mux.HandleFunc("GET /bio", server.handlePage("bio"))
	server.mux.HandleFunc("GET /database.json", server.handleDatabase)
	server.mux.HandleFunc("GET /highlight.css", server.handleHighlight)
	server.mux.HandleFunc("GET /{file}", server.handleStylesheet)
	server.mux.HandleFunc("GET /{kind}/{slug}", server.handleShortLink)
	server.mux.HandleFunc("GET /{kind}/{slug}/{page}", server.handleSubPage)
	for path, file := range config.Site.StaticFiles {
		server.mux.HandleFunc("GET "+path, server.handleStatic(file))
	}
	if stats != nil {
		stats.RegisterRoutes(server.mux)
	}

	return server
}

// Handler returns the complete handler chain.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.setHeaders(s.mux))
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePage renders a top-level page over the home page listing.
func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.site.RefreshViews(); err != nil {
			s.fail(w, r, err)
			return
		}
		listing, err := s.site.Listing(r.Context(), s.now())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		html, err := s.site.renderer.Page(r.Context(), name, render.Page{Listing: listing})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeHTML(w, html)
	}
}

func (s *Server) handleDatabase(w http.ResponseWriter, r *http.Request) {
	c, err := s.site.source.Catalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := c.JSON()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := markdown.WriteStylesheet(&buf, s.config.Site.HighlightStyle); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".css")
	if !ok {
		http.NotFound(w, r)
		return
	}
	css, err := s.site.Stylesheet(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(css))
}

// handleShortLink serves the stable URL of an event: a permanent redirect to
// its primary page when that is on this site, a redirect stub when it is not.
// A workshop with a template of its own is rendered in place.
func (s *Server) handleShortLink(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(r.PathValue("kind"))
	slug := r.PathValue("slug")
	if !kind.Valid() {
		http.NotFound(w, r)
		return
	}
	if err := s.site.RefreshViews(); err != nil {
		s.fail(w, r, err)
		return
	}

	if kind == catalog.KindWorkshops && s.site.tm.Has(render.WorkshopTemplate(slug)) {
		s.renderSubPage(w, r, kind, render.SubPageWorkshop, slug)
		return
	}

	c, err := s.site.source.Catalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := c.Find(kind, slug)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	link, ok := channel.PrimaryLink(string(kind), e)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if channel.IsInternal(link) {
		http.Redirect(w, r, link, http.StatusMovedPermanently)
		return
	}
	s.renderSubPage(w, r, kind, render.SubPageRedirect, slug)
}

func (s *Server) handleSubPage(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(r.PathValue("kind"))
	if !kind.Valid() {
		http.NotFound(w, r)
		return
	}
	var page render.SubPage
	switch channel.Page(r.PathValue("page")) {
	case channel.PageEssay:
		page = render.SubPageEssay
	case channel.PagePresentation:
		page = render.SubPagePresentation
	case channel.PageVideo:
		page = render.SubPageVideo
	default:
		http.NotFound(w, r)
		return
	}
	if err := s.site.RefreshViews(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderSubPage(w, r, kind, page, r.PathValue("slug"))
}

func (s *Server) renderSubPage(w http.ResponseWriter, r *http.Request, kind catalog.Kind, page render.SubPage, slug string) {
	res, err := s.site.renderer.Render(r.Context(), kind, page, slug)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeHTML(w, res.HTML)
}

func (s *Server) handleStatic(file StaticFile) http.HandlerFunc {
	path := filepath.Join(s.config.Site.AssetsDir, filepath.FromSlash(file.Path))
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			s.fail(w, r, err)
			return
		}
		if file.ContentType != "" {
			w.Header().Set("Content-Type", file.ContentType)
		}
		_, _ = w.Write(data)
	}
}

// fail answers 404 for anything that does not exist and 500 for everything
// else, unsupported variants included.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, render.ErrNotFound) || errors.Is(err, catalog.ErrNotFound) || errors.Is(err, stylesheet.ErrNotFound) {
		s.logger.Debug("Not found", "url", r.URL.String(), "error", err)
		http.NotFound(w, r)
		return
	}
	s.logger.Error("Failed to serve request", "url", r.URL.String(), "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
