package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/CTAG07/Podium/pkg/catalog"
	"github.com/CTAG07/Podium/pkg/templating"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

const environmentProduction = "production"

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	ServerAddr  string            `json:"server_addr"`
	Environment string            `json:"environment"`
	LogLevel    string            `json:"log_level"`
	StatsDSN    string            `json:"stats_dsn"`
	Headers     map[string]string `json:"headers"`
}

// StaticFile is a file served verbatim at a fixed URL path.
type StaticFile struct {
	// Path is relative to the assets directory.
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
}

// SiteConfig locates the site's sources and tunes how they are read.
type SiteConfig struct {
	CatalogPath    string                `json:"catalog_path"`
	ViewsDir       string                `json:"views_dir"`
	ContentDir     string                `json:"content_dir"`
	StylesDir      string                `json:"styles_dir"`
	AssetsDir      string                `json:"assets_dir"`
	Timezone       string                `json:"timezone"`
	SassBinary     string                `json:"sass_binary"`
	HighlightStyle string                `json:"highlight_style"`
	PreviousRules  catalog.PreviousRules `json:"previous_rules"`
	StaticFiles    map[string]StaticFile `json:"static_files"`
}

// BuildConfig holds settings for the static export.
type BuildConfig struct {
	OutDir      string `json:"out_dir"`
	Concurrency int    `json:"concurrency"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config"`
	Site      *SiteConfig                `json:"site_config"`
	Templates *templating.TemplateConfig `json:"template_config"`
	Build     *BuildConfig               `json:"build_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr:  ":8080",
		Environment: "development",
		LogLevel:    "info",
		StatsDSN:    "",
		Headers: map[string]string{
			"Content-Security-Policy": "default-src 'self'; img-src 'self' https:; frame-src https://www.youtube.com; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline';",
			"X-Frame-Options":         "DENY",
			"X-XSS-Protection":        "1; mode=block",
			"X-Content-Type-Options":  "nosniff",
		},
	}
}

// DefaultSiteConfig creates a site configuration with default values.
func DefaultSiteConfig() *SiteConfig {
	return &SiteConfig{
		CatalogPath:    "./data/database.yaml",
		ViewsDir:       "./data/views",
		ContentDir:     "./data/content",
		StylesDir:      "./data/styles",
		AssetsDir:      "./data/assets",
		Timezone:       "",
		SassBinary:     "",
		HighlightStyle: "github",
		PreviousRules:  catalog.DefaultPreviousRules(),
		StaticFiles: map[string]StaticFile{
			"/favicon.ico": {Path: "favicon.ico", ContentType: "image/x-icon"},
			"/robots.txt":  {Path: "robots.txt", ContentType: "text/plain; charset=utf-8"},
		},
	}
}

// DefaultBuildConfig creates a build configuration with default values.
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		OutDir:      "./build",
		Concurrency: 8,
	}
}

// DefaultConfig returns a complete configuration with default values.
func DefaultConfig() *Config {
	templates := templating.DefaultConfig()
	return &Config{
		Server:    DefaultServerConfig(),
		Site:      DefaultSiteConfig(),
		Templates: &templates,
		Build:     DefaultBuildConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// Comments and trailing commas are allowed. If the file doesn't exist, it
// creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the server can still run with defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		// For other errors (e.g., permission denied), return the error.
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	standardized, err := hujson.Standardize(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err = json.Unmarshal(standardized, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server == nil || c.Site == nil || c.Templates == nil || c.Build == nil {
		return fmt.Errorf("server_config, site_config, template_config and build_config are required")
	}
	if err := c.Site.PreviousRules.Validate(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for path := range c.Site.StaticFiles {
		if !strings.HasPrefix(path, "/") || strings.ContainsAny(path, " {}") {
			return fmt.Errorf("invalid static file path %q", path)
		}
	}
	return nil
}

// ApplyEnv overrides settings from the environment: PORT, ENVIRONMENT,
// LOG_LEVEL and STATS_DSN.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.ServerAddr = ":" + port
	}
	if env := getenv("ENVIRONMENT"); env != "" {
		c.Server.Environment = env
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.Server.LogLevel = level
	}
	if dsn := getenv("STATS_DSN"); dsn != "" {
		c.Server.StatsDSN = dsn
	}
}

// Production reports whether the server runs in production mode, which turns
// memoization on.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Server.Environment, environmentProduction)
}

// Location returns the time zone the catalog dates are read in.
func (c *Config) Location() (*time.Location, error) {
	if c.Site.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Site.Timezone, err)
	}
	return loc, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger writes JSON records in production and text records otherwise.
func newLogger(w io.Writer, config *ServerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(config.LogLevel)}
	if strings.EqualFold(config.Environment, environmentProduction) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
