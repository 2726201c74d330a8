package stylesheet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranspiler struct {
	calls      int
	gotSource  string
	gotInclude string
	err        error
}

func (f *fakeTranspiler) Transpile(source, includeDir string) (string, error) {
	f.calls++
	f.gotSource = source
	f.gotInclude = includeDir
	if f.err != nil {
		return "", f.err
	}
	return "body{color:red}", nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestCompiler_SCSS(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.scss"), "$c: red; body { color: $c; }")
	fake := &fakeTranspiler{}

	css, err := NewCompiler(dir, fake).Compile(context.Background(), "site")
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", css)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "$c: red; body { color: $c; }", fake.gotSource)
	assert.Equal(t, dir, fake.gotInclude)
}

func TestCompiler_PlainCSSWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "reset.css"), "*{margin:0}")
	writeFile(t, filepath.Join(dir, "reset.scss"), "ignored")
	fake := &fakeTranspiler{}

	css, err := NewCompiler(dir, fake).Compile(context.Background(), "reset")
	require.NoError(t, err)
	assert.Equal(t, "*{margin:0}", css)
	assert.Zero(t, fake.calls)
}

func TestCompiler_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.scss"), "body {")
	c := NewCompiler(dir, &fakeTranspiler{err: errors.New("expected }")})

	_, err := c.Compile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Compile(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Compile(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "expected }")

	_, err = NewCompiler(dir, nil).Compile(context.Background(), "broken")
	require.Error(t, err)
}
