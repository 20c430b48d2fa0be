package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereign-agent/core/internal/agent"
	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/llm"
	"github.com/sovereign-agent/core/internal/router"
	"github.com/sovereign-agent/core/internal/tool"
)

type nopClient struct{}

func (nopClient) Chat(ctx context.Context, messages []core.Message, temperature float64, maxTokens int) (llm.ChatResult, error) {
	return llm.ChatResult{Content: "ok"}, nil
}

func newAgentForTest(workingDir string) *agent.Loop {
	reg := tool.NewRegistry()
	rt := router.New(nil)
	return agent.New(reg, rt, func(string) agent.ChatClient { return nopClient{} })
}

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(DefaultConfig(), newAgentForTest)

	s := m.Create("/tmp/work")
	require.NotEmpty(t, s.ID)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 1, m.ActiveCount())
}

func TestManagerGetOrCreateReusesExisting(t *testing.T) {
	m := NewManager(DefaultConfig(), newAgentForTest)
	s := m.Create("/tmp/work")

	again := m.GetOrCreate(s.ID, "/tmp/work")
	assert.Equal(t, s.ID, again.ID)
	assert.Equal(t, 1, m.ActiveCount())
}

func TestManagerGetOrCreateUnknownIDMakesNew(t *testing.T) {
	m := NewManager(DefaultConfig(), newAgentForTest)

	s := m.GetOrCreate("does-not-exist", "/tmp/work")
	assert.NotEqual(t, "does-not-exist", s.ID)
	assert.Equal(t, 1, m.ActiveCount())
}

func TestManagerEvictsLRUOnOverflow(t *testing.T) {
	cfg := Config{MaxSessions: 2, SessionTimeout: time.Hour}
	m := NewManager(cfg, newAgentForTest)

	first := m.Create("/tmp/a")
	time.Sleep(2 * time.Millisecond)
	second := m.Create("/tmp/b")
	time.Sleep(2 * time.Millisecond)

	// Touch second so first is strictly least-recently-used.
	_, _ = m.Get(second.ID)
	time.Sleep(2 * time.Millisecond)

	third := m.Create("/tmp/c")

	assert.Equal(t, 2, m.ActiveCount())
	_, ok := m.Get(first.ID)
	assert.False(t, ok, "least recently used session should have been evicted")
	_, ok = m.Get(second.ID)
	assert.True(t, ok)
	_, ok = m.Get(third.ID)
	assert.True(t, ok)
}

func TestManagerEvictsExpiredSessions(t *testing.T) {
	cfg := Config{MaxSessions: 10, SessionTimeout: 5 * time.Millisecond}
	m := NewManager(cfg, newAgentForTest)

	s := m.Create("/tmp/a")
	time.Sleep(20 * time.Millisecond)

	_, ok := m.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, m.ActiveCount())
}

func TestManagerResetClearsHistory(t *testing.T) {
	m := NewManager(DefaultConfig(), newAgentForTest)
	s := m.Create("/tmp/a")
	s.History = []core.Message{{Role: core.RoleUser, Content: "hi"}}

	ok := m.Reset(s.ID)
	require.True(t, ok)

	got, _ := m.Get(s.ID)
	assert.Empty(t, got.History)
}

func TestManagerDeleteAndCloseAll(t *testing.T) {
	m := NewManager(DefaultConfig(), newAgentForTest)
	a := m.Create("/tmp/a")
	_ = m.Create("/tmp/b")

	assert.True(t, m.Delete(a.ID))
	assert.False(t, m.Delete(a.ID))
	assert.Equal(t, 1, m.ActiveCount())

	m.CloseAll()
	assert.Equal(t, 0, m.ActiveCount())
}
