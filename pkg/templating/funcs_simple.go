package templating

import "html/template"

// safeHTML marks trusted markup, such as compiled markdown, as safe.
func safeHTML(s string) template.HTML {
	return template.HTML(s)
}
