package templating

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// EventTemplateDir is the subdirectory of the views directory holding one
// template per workshop. Its templates are named "events/<file>".
const EventTemplateDir = "events"

// TemplateManager is the central controller for the site's views.
// It manages the template set, configuration, and function map, and is
// responsible for loading, parsing, and executing templates in a
// concurrent-safe manner.
// All methods are concurrent-safe.
type TemplateManager struct {
	logger        *slog.Logger
	config        *TemplateConfig
	templates     *template.Template
	templateNames []string
	funcMap       template.FuncMap
	templateDir   string
	mu            sync.RWMutex
}

// NewTemplateManager creates, initializes, and returns a new TemplateManager.
// templateDir holds the page templates (*.tmpl.html), the partials
// (*.part.html) and the per-workshop templates under events/. It performs an
// initial Refresh to load all templates.
func NewTemplateManager(logger *slog.Logger, config TemplateConfig, templateDir string) (*TemplateManager, error) {
	tm := &TemplateManager{
		logger:      logger,
		templateDir: templateDir,
		config:      &config,
	}
	tm.funcMap = tm.makeFuncMap()

	if err := tm.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized", "dir", templateDir)
	return tm, nil
}

func (tm *TemplateManager) makeFuncMap() template.FuncMap {
	return template.FuncMap{
		// Links (from funcs_links.go)
		"primaryLink": tm.primaryLink,
		"shortLink":   shortLink,
		"pageLink":    tm.pageLink,
		"eventLinks":  tm.eventLinks,
		"hasRedirect": hasRedirect,
		"css":         tm.css,
		"asset":       tm.asset,

		// Logic & Control (from funcs_logic.go)
		"list":  list,
		"dict":  dict,
		"extra": extra,
		"first": first,

		// Simple (from funcs_simple.go). and/or/not stay the text/template
		// built-ins, which test truthiness of any value.
		"safeHTML": safeHTML,
	}
}

// SetConfig applies a new configuration to the TemplateManager, e.g. switching
// link generation to the static export suffix.
func (tm *TemplateManager) SetConfig(config TemplateConfig) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.config = &config
}

// GetConfig returns a copy of the current configuration.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// Refresh reloads all templates from the filesystem. This allows for updates
// to the views without restarting the application.
func (tm *TemplateManager) Refresh() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	filePattern := filepath.Join(tm.templateDir, "*.tmpl.html")
	tm.logger.Debug("Loading template files...", "pattern", filePattern)

	parsedFiles, err := template.New("").Funcs(tm.funcMap).ParseGlob(filePattern)
	var names []string
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			tm.logger.Error("failed to parse template files", "error", err)
			return err
		}
		// No template files, so we have to create the object without any
		parsedFiles = template.New("").Funcs(tm.funcMap)
	} else {
		for _, t := range parsedFiles.Templates() {
			// The root template has no name and is never executed
			if strings.HasSuffix(t.Name(), ".tmpl.html") {
				names = append(names, t.Name())
			}
		}
	}

	filePattern = filepath.Join(tm.templateDir, "*.part.html")
	tm.logger.Debug("Loading partial files...", "pattern", filePattern)

	withPartials, err := parsedFiles.ParseGlob(filePattern)
	if err != nil {
		if !strings.Contains(err.Error(), "pattern matches no files") {
			tm.logger.Error("failed to parse partial files", "error", err)
			return err
		}
		withPartials = parsedFiles
	}

	// Workshop templates share base names with pages, so they are parsed
	// one by one under a prefixed name.
	eventNames, err := tm.parseEventTemplates(withPartials)
	if err != nil {
		tm.logger.Error("failed to parse event templates", "error", err)
		return err
	}
	names = append(names, eventNames...)
	sort.Strings(names)

	if len(names) == 0 {
		tm.logger.Warn("No template files found", "dir", tm.templateDir)
	}

	tm.templates = withPartials
	tm.templateNames = names
	tm.logger.Info("Loaded template and partial files", "count", len(withPartials.Templates())-1) // Subtract one for the root template
	return nil
}

func (tm *TemplateManager) parseEventTemplates(set *template.Template) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(tm.templateDir, EventTemplateDir, "*.tmpl.html"))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		name := EventTemplateDir + "/" + filepath.Base(file)
		if _, err = set.New(name).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// Execute renders a specific template by name, writing the output to the provided io.Writer.
func (tm *TemplateManager) Execute(w io.Writer, name string, data any) error {
	if name == "" {
		return nil
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templates.ExecuteTemplate(w, name, data)
}

// Has reports whether a template or partial called name is loaded.
func (tm *TemplateManager) Has(name string) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templates.Lookup(name) != nil
}

// GetTemplateNames returns the names of the loaded full templates, pages and
// event templates, in sorted order.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	names := make([]string, len(tm.templateNames))
	copy(names, tm.templateNames)
	return names
}

// GetTemplateDir returns the template dir that the TemplateManager uses.
func (tm *TemplateManager) GetTemplateDir() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templateDir
}
