// Package markdown compiles essay and slide sources to HTML, highlighting fenced
// code blocks.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Compile renders source to HTML. Raw HTML in the source is passed through.
// Fenced code blocks without a language use defaultLanguage; a language the
// highlighter does not know is emitted as plain escaped code.
func Compile(source []byte, defaultLanguage string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&codeBlockRenderer{defaultLanguage: defaultLanguage}, 100),
			),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("failed to compile markdown: %w", err)
	}
	return buf.String(), nil
}
