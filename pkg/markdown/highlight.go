package markdown

import (
	"bytes"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// DefaultStyle is the chroma style used for the highlighting stylesheet.
const DefaultStyle = "github"

var formatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

// codeBlockRenderer replaces goldmark's code block rendering with chroma.
type codeBlockRenderer struct {
	defaultLanguage string
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFenced)
	reg.Register(ast.KindCodeBlock, r.renderIndented)
}

func (r *codeBlockRenderer) renderFenced(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	language := string(n.Language(source))
	if language == "" {
		language = r.defaultLanguage
	}
	writeBlock(w, language, blockText(source, n))
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) renderIndented(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	writeBlock(w, r.defaultLanguage, blockText(source, node))
	return ast.WalkSkipChildren, nil
}

func blockText(source []byte, node ast.Node) string {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return b.String()
}

func writeBlock(w util.BufWriter, language, code string) {
	_, _ = w.WriteString("<pre><code")
	if language != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(language)))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')
	if highlighted, ok := Highlight(code, language); ok {
		_, _ = w.WriteString(highlighted)
	} else {
		_, _ = w.Write(util.EscapeHTML([]byte(code)))
	}
	_, _ = w.WriteString("</code></pre>\n")
}

// Highlight returns code marked up with chroma classes. It reports false when
// the language is empty or unknown, or the lexer fails; the caller then falls
// back to plain code.
func Highlight(code, language string) (string, bool) {
	if language == "" {
		return "", false
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false
	}
	var buf bytes.Buffer
	if err = formatter.Format(&buf, styles.Get(DefaultStyle), iterator); err != nil {
		return "", false
	}
	return buf.String(), true
}

// WriteStylesheet writes the CSS for the highlighting classes in style.
func WriteStylesheet(w io.Writer, style string) error {
	return formatter.WriteCSS(w, styles.Get(style))
}
