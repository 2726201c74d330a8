package templating

import "github.com/CTAG07/Podium/pkg/channel"

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// Links controls how in-system event pages are addressed: bare paths when
	// served, ".html" files in the static export. It follows the run mode and
	// is not read from the config file.
	Links channel.Links `json:"-"`

	// AssetPrefix is prepended to static asset and stylesheet URLs, e.g. a CDN origin.
	AssetPrefix string `json:"asset_prefix"`

	// StylesheetSuffix is appended to stylesheet names by the css function.
	StylesheetSuffix string `json:"stylesheet_suffix"`
}

// DefaultConfig returns the TemplateConfig used by the HTTP server.
func DefaultConfig() TemplateConfig {
	return TemplateConfig{
		Links:            channel.Served,
		AssetPrefix:      "",
		StylesheetSuffix: ".css",
	}
}

// ExportConfig returns the TemplateConfig used by the static export.
func ExportConfig() TemplateConfig {
	config := DefaultConfig()
	config.Links = channel.Exported
	return config
}
