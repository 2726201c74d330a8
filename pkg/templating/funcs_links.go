package templating

import (
	"github.com/CTAG07/Podium/pkg/catalog"
	"github.com/CTAG07/Podium/pkg/channel"
)

// Template funcs run while Execute holds the read lock, so they read
// tm.config without locking again.

// primaryLink returns the canonical link of an event, or "" when it has none.
func (tm *TemplateManager) primaryLink(kind catalog.Kind, e *catalog.Event) string {
	if e == nil {
		return ""
	}
	link, ok := tm.config.Links.Primary(string(kind), e)
	if !ok {
		return ""
	}
	return link
}

// pageLink returns the URL of one in-system sub-page of an event.
func (tm *TemplateManager) pageLink(kind catalog.Kind, slug string, page string) string {
	return tm.config.Links.Page(string(kind), slug, channel.Page(page))
}

// shortLink returns the stable short URL of an event.
func shortLink(kind catalog.Kind, slug string) string {
	return channel.Short(string(kind), slug)
}

// eventLinks returns every link shown for an event in a listing.
func (tm *TemplateManager) eventLinks(kind catalog.Kind, e *catalog.Event) []channel.Link {
	if e == nil {
		return nil
	}
	return tm.config.Links.List(string(kind), e)
}

// hasRedirect reports whether the event's short URL leads off-site.
func hasRedirect(kind catalog.Kind, e *catalog.Event) bool {
	if e == nil {
		return false
	}
	return channel.NeedsRedirectStub(string(kind), e)
}

// css returns the URL of a compiled stylesheet.
func (tm *TemplateManager) css(name string) string {
	return tm.config.AssetPrefix + "/" + name + tm.config.StylesheetSuffix
}

// asset returns the URL of a static asset.
func (tm *TemplateManager) asset(path string) string {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return tm.config.AssetPrefix + path
}
