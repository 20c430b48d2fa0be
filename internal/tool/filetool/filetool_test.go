package filetool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	guard := PathGuard{WorkingDir: dir}

	write := WriteFile{Guard: guard}
	res := write.Execute(context.Background(), map[string]string{"path": "a.txt", "content": "hello"})
	require.True(t, res.Success)

	read := ReadFile{Guard: guard}
	res = read.Execute(context.Background(), map[string]string{"path": "a.txt"})
	require.True(t, res.Success)
	assert.Equal(t, "hello", res.Output)
}

func TestReadFileRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	guard := PathGuard{WorkingDir: dir}
	read := ReadFile{Guard: guard}
	res := read.Execute(context.Background(), map[string]string{"path": "../../etc/passwd"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Access denied")
}

func TestStrReplaceFirstOccurrenceOnly(t *testing.T) {
	dir := t.TempDir()
	guard := PathGuard{WorkingDir: dir}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x x x"), 0o644))

	sr := StrReplace{Guard: guard}
	res := sr.Execute(context.Background(), map[string]string{"path": "f.txt", "old_str": "x", "new_str": "y"})
	require.True(t, res.Success)

	data, _ := os.ReadFile(filepath.Join(dir, "f.txt"))
	assert.Equal(t, "y x x", string(data))
}

func TestStrReplaceAll(t *testing.T) {
	dir := t.TempDir()
	guard := PathGuard{WorkingDir: dir}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x x x"), 0o644))

	sr := StrReplace{Guard: guard}
	res := sr.Execute(context.Background(), map[string]string{
		"path": "f.txt", "old_str": "x", "new_str": "y", "replace_all": "true",
	})
	require.True(t, res.Success)

	data, _ := os.ReadFile(filepath.Join(dir, "f.txt"))
	assert.Equal(t, "y y y", string(data))
}

func TestListDirectoryTagsEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644))

	guard := PathGuard{WorkingDir: dir}
	ld := ListDirectory{Guard: guard}
	res := ld.Execute(context.Background(), map[string]string{"path": "."})
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "[DIR] sub")
	assert.Contains(t, res.Output, "[FILE] f.txt")
}
