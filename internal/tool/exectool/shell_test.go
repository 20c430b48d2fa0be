package exectool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShellRunsCommand(t *testing.T) {
	sh := Shell{Timeout: 5 * time.Second}
	res := sh.Execute(context.Background(), map[string]string{"command": "echo hello"})
	assert.True(t, res.Success)
	assert.Contains(t, res.Output, "hello")
}

func TestShellBlocksDangerousPattern(t *testing.T) {
	sh := Shell{}
	res := sh.Execute(context.Background(), map[string]string{"command": "rm -rf /"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "blocked")
}

func TestShellRespectsAllowlist(t *testing.T) {
	sh := Shell{Allowed: []string{"echo"}}
	res := sh.Execute(context.Background(), map[string]string{"command": "cat /etc/hosts"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not in the allowed list")
}

func TestShellTimesOut(t *testing.T) {
	sh := Shell{Timeout: 50 * time.Millisecond}
	res := sh.Execute(context.Background(), map[string]string{"command": "sleep 2"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestShellMissingCommand(t *testing.T) {
	sh := Shell{}
	res := sh.Execute(context.Background(), map[string]string{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Missing required parameter")
}
