package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereign-agent/core/internal/core"
)

func TestVerifyReadFileEmpty(t *testing.T) {
	v := New()
	r := v.Verify("read_file", nil, core.ToolResult{Success: true, Output: ""})
	assert.Equal(t, StatusFailed, r.Status)
	assert.NotEmpty(t, r.Suggestions)
}

func TestVerifyWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	v := New()
	r := v.Verify("write_file", map[string]string{"path": path, "content": "hello"}, core.ToolResult{Success: true})
	assert.Equal(t, StatusPassed, r.Status)
}

func TestVerifyWriteFileMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("other"), 0o644))

	v := New()
	r := v.Verify("write_file", map[string]string{"path": path, "content": "hello"}, core.ToolResult{Success: true})
	assert.Equal(t, StatusFailed, r.Status)
}

func TestVerifyFailedResultAlwaysSkipped(t *testing.T) {
	v := New()
	r := v.Verify("write_file", map[string]string{"path": "/nope"}, core.ToolResult{Success: false, Error: "denied"})
	assert.Equal(t, StatusSkipped, r.Status)
}

func TestVerifyGitShellUnknownSkipped(t *testing.T) {
	v := New()
	for _, tool := range []string{"git", "shell", "something_unknown"} {
		r := v.Verify(tool, nil, core.ToolResult{Success: true, Output: "x"})
		assert.Equal(t, StatusSkipped, r.Status, tool)
	}
}

func TestCountersAccumulate(t *testing.T) {
	v := New()
	v.Verify("list_directory", nil, core.ToolResult{Success: true, Output: ""})
	v.Verify("read_file", nil, core.ToolResult{Success: true, Output: ""})
	c := v.Counters()
	assert.Equal(t, 2, c.Total)
	assert.Equal(t, 1, c.Passed)
	assert.Equal(t, 1, c.Failed)
}
