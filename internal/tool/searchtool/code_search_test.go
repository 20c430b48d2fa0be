package searchtool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereign-agent/core/internal/tool/filetool"
)

func TestCodeSearchFindsMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("func Foo() {}\nfunc Bar() {}\n"), 0o644))

	cs := CodeSearch{Guard: filetool.PathGuard{WorkingDir: dir}}
	res := cs.Execute(context.Background(), map[string]string{"pattern": "func Foo"})
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "a.go:1:")
}

func TestCodeSearchInvalidRegex(t *testing.T) {
	dir := t.TempDir()
	cs := CodeSearch{Guard: filetool.PathGuard{WorkingDir: dir}}
	res := cs.Execute(context.Background(), map[string]string{"pattern": "("})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid regex")
}

func TestCodeSearchNoMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("nothing here"), 0o644))
	cs := CodeSearch{Guard: filetool.PathGuard{WorkingDir: dir}}
	res := cs.Execute(context.Background(), map[string]string{"pattern": "zzz"})
	require.True(t, res.Success)
	assert.Equal(t, "No matches found.", res.Output)
}
