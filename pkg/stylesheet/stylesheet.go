// Package stylesheet compiles the site's SCSS sources to CSS.
package stylesheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
)

// ErrNotFound indicates that no stylesheet source exists for a name.
var ErrNotFound = errors.New("stylesheet: not found")

// Transpiler turns SCSS source into CSS. includeDir is searched for imports.
type Transpiler interface {
	Transpile(source, includeDir string) (string, error)
}

// Compiler resolves stylesheet names against a source directory. A plain
// <name>.css file is served as is; otherwise <name>.scss is transpiled.
type Compiler struct {
	dir        string
	transpiler Transpiler
}

// NewCompiler creates a Compiler over dir.
func NewCompiler(dir string, transpiler Transpiler) *Compiler {
	return &Compiler{dir: dir, transpiler: transpiler}
}

// Compile returns the CSS for name, e.g. "site" for site.scss.
func (c *Compiler) Compile(_ context.Context, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	plain := filepath.Join(c.dir, name+".css")
	if data, err := os.ReadFile(plain); err == nil {
		return string(data), nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %w", plain, err)
	}

	source := filepath.Join(c.dir, name+".scss")
	data, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to read %s: %w", source, err)
	}
	if c.transpiler == nil {
		return "", fmt.Errorf("no sass transpiler configured for %s", source)
	}
	css, err := c.transpiler.Transpile(string(data), c.dir)
	if err != nil {
		return "", fmt.Errorf("failed to compile %s: %w", source, err)
	}
	return css, nil
}

// DartSass transpiles through an embedded Dart Sass process, started on first use.
type DartSass struct {
	binary string

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass creates a DartSass using binary, or the "sass" on PATH when empty.
func NewDartSass(binary string) *DartSass {
	return &DartSass{binary: binary}
}

func (d *DartSass) Transpile(source, includeDir string) (string, error) {
	t, err := d.start()
	if err != nil {
		return "", err
	}
	res, err := t.Execute(godartsass.Args{
		Source:       source,
		IncludePaths: []string{includeDir},
		SourceSyntax: godartsass.SourceSyntaxSCSS,
		OutputStyle:  godartsass.OutputStyleExpanded,
	})
	if err != nil {
		return "", err
	}
	return res.CSS, nil
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler != nil {
		return d.transpiler, nil
	}
	t, err := godartsass.Start(godartsass.Options{DartSassEmbeddedFilename: d.binary})
	if err != nil {
		return nil, fmt.Errorf("failed to start dart sass: %w", err)
	}
	d.transpiler = t
	return t, nil
}

// Close stops the Dart Sass process if it was started.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}
