package exectool

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereign-agent/core/internal/tool/filetool"
)

func initRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		require.NoError(t, cmd.Run())
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
}

func TestGitStatus(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir)

	g := Git{Guard: filetool.PathGuard{WorkingDir: dir}, Timeout: 5 * time.Second}
	res := g.Execute(context.Background(), map[string]string{"operation": "status"})
	assert.True(t, res.Success)
	assert.Contains(t, res.Output, "Git status completed")
}

func TestGitUnsupportedOperation(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir)
	g := Git{Guard: filetool.PathGuard{WorkingDir: dir}}
	res := g.Execute(context.Background(), map[string]string{"operation": "rebase"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Unsupported operation")
}

func TestGitCommitRequiresMessage(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir)
	g := Git{Guard: filetool.PathGuard{WorkingDir: dir}}
	res := g.Execute(context.Background(), map[string]string{"operation": "commit"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "requires 'message'")
}
