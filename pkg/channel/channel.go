// Package channel decides how an event is reached: which of its pages exist and
// which single link is its canonical one.
package channel

import (
	"strings"

	"github.com/CTAG07/Podium/pkg/catalog"
)

// Page is an in-system sub-page of an event.
type Page string

const (
	PageEssay        Page = "essay"
	PagePresentation Page = "presentation"
	PageVideo        Page = "video"
)

// Link is one entry of an event's link list.
type Link struct {
	Href string
	Text string
}

// Links builds event URLs. Suffix is appended to in-system pages, ".html" for
// the static export and empty when served.
type Links struct {
	Suffix string
}

// Served builds links for the HTTP server.
var Served = Links{}

// Exported builds links for the static export.
var Exported = Links{Suffix: ".html"}

// PrimaryLink resolves the canonical link of e as served. See Links.Primary.
func PrimaryLink(prefix string, e *catalog.Event) (string, bool) {
	return Served.Primary(prefix, e)
}

// Page returns the URL of one sub-page.
func (l Links) Page(prefix, slug string, page Page) string {
	return "/" + prefix + "/" + slug + "/" + string(page) + l.Suffix
}

// Short returns the stable short URL of an event.
func Short(prefix, slug string) string {
	return "/" + prefix + "/" + slug
}

// Primary resolves the canonical link of e. First match wins: essay,
// presentation, video, external record. It returns false when the event has
// nothing to link to.
func (l Links) Primary(prefix string, e *catalog.Event) (string, bool) {
	if e.Essay {
		return l.Page(prefix, e.Slug, PageEssay), true
	}
	if p := e.Presentation; p != nil {
		if p.Type == catalog.PresentationExternal {
			return p.Link, true
		}
		return l.Page(prefix, e.Slug, PagePresentation), true
	}
	if v := e.Video; v != nil {
		if v.Type == catalog.VideoExternal {
			return v.Link, true
		}
		return l.Page(prefix, e.Slug, PageVideo), true
	}
	if e.External != nil {
		return e.External.Link, true
	}
	return "", false
}

// Pages lists the sub-pages the site renders for e.
func Pages(e *catalog.Event) []Page {
	if e.Slug == "" {
		return nil
	}
	var pages []Page
	if e.Essay {
		pages = append(pages, PageEssay)
	}
	if e.Presentation != nil && e.Presentation.Type != catalog.PresentationExternal {
		pages = append(pages, PagePresentation)
	}
	if e.Video != nil && e.Video.Type == catalog.VideoYouTube {
		pages = append(pages, PageVideo)
	}
	return pages
}

// List returns every link shown for e in a listing, in display order.
func (l Links) List(prefix string, e *catalog.Event) []Link {
	var links []Link
	if e.Essay && e.Slug != "" {
		links = append(links, Link{Href: l.Page(prefix, e.Slug, PageEssay), Text: "Read as an essay"})
	}
	if p := e.Presentation; p != nil {
		href := p.Link
		if p.Type != catalog.PresentationExternal {
			href = l.Page(prefix, e.Slug, PagePresentation)
		}
		links = append(links, Link{Href: href, Text: "Browse the presentation"})
	}
	if v := e.Video; v != nil {
		href := v.Link
		if v.Type != catalog.VideoExternal {
			href = l.Page(prefix, e.Slug, PageVideo)
		}
		links = append(links, Link{Href: href, Text: "Watch the video"})
	}
	if x := e.External; x != nil {
		links = append(links, Link{Href: x.Link, Text: x.Text})
	}
	return links
}

// IsInternal reports whether link points at a page of this site.
func IsInternal(link string) bool {
	return strings.HasPrefix(link, "/") && !strings.HasPrefix(link, "//")
}

// NeedsRedirectStub reports whether the event's only path leads off-site, in
// which case its short URL is served by a redirect stub page.
func NeedsRedirectStub(prefix string, e *catalog.Event) bool {
	link, ok := PrimaryLink(prefix, e)
	return ok && !IsInternal(link)
}
