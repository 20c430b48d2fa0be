package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereign-agent/core/internal/tool"
)

func TestNewSourceRejectsMissingCommand(t *testing.T) {
	_, err := NewSource(Config{Name: "broken"})
	assert.Error(t, err)
}

func TestNewSourceAppliesDefaultInitTimeout(t *testing.T) {
	src, err := NewSource(Config{Name: "local", Command: "true"})
	require.NoError(t, err)
	assert.Equal(t, DefaultInitTimeout, src.cfg.InitTimeout)
}

func TestNewManagerCollectsPerSourceErrorsWithoutFailingOthers(t *testing.T) {
	mgr, errs := NewManager([]Config{
		{Name: "broken"},
		{Name: "ok", Command: "true"},
	}, nil)

	require.Len(t, errs, 1)
	require.Len(t, mgr.sources, 1)
	assert.Equal(t, "ok", mgr.sources[0].cfg.Name)
}

func TestRegisterAllSkipsUnreachableSources(t *testing.T) {
	mgr, errs := NewManager([]Config{
		{Name: "unreachable", Command: "/nonexistent/binary/does-not-exist"},
	}, nil)
	require.Empty(t, errs)

	reg := tool.NewRegistry()
	mgr.RegisterAll(context.Background(), reg)

	assert.Empty(t, reg.All())
}
