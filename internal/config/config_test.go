package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigPopulatesEverySubsystem(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 50, cfg.Agent.MaxIterations)
	assert.True(t, cfg.Agent.EnableLearning)
	assert.Equal(t, 8192, cfg.Prompt.MaxTokens)
	assert.Equal(t, 10, cfg.Session.MaxSessions)
	assert.Equal(t, time.Hour, cfg.Session.SessionTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Cache.MaxSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Metrics.Enabled)
}
