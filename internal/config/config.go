// Package config implements the layered configuration loader of §4.18:
// compiled-in defaults, overridden by an optional YAML file, overridden by
// SOVEREIGN_-prefixed environment variables, overridden by explicit CLI
// flags. A .env file (if present) is loaded before environment-variable
// resolution.
package config

import (
	"time"

	"github.com/sovereign-agent/core/internal/agent"
	"github.com/sovereign-agent/core/internal/llm"
	"github.com/sovereign-agent/core/internal/mcp"
	"github.com/sovereign-agent/core/internal/metrics"
	"github.com/sovereign-agent/core/internal/prompt"
	"github.com/sovereign-agent/core/internal/rag"
	"github.com/sovereign-agent/core/internal/session"
)

// ServerConfig tunes the HTTP/WebSocket API's listen address.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CacheConfig tunes the operation cache's TTL and entry bound. It has no
// home package of its own: cache.New takes these two values directly rather
// than a Config struct, so the config loader carries them here instead.
type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	MaxSize int           `yaml:"max_size"`
}

// Config is the process's full configuration tree, one field per
// subsystem. Every subsystem keeps its own defaults via DefaultConfig or
// SetDefaults; Config.SetDefaults applies all of them before any layer is
// merged in.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      llm.Config     `yaml:"llm"`
	Agent    agent.Config   `yaml:"agent"`
	Prompt   prompt.Config  `yaml:"prompt"`
	Session  session.Config `yaml:"session"`
	Cache    CacheConfig    `yaml:"cache"`
	RAG      rag.Config     `yaml:"rag"`
	Metrics  metrics.Config `yaml:"metrics"`
	MCP      []mcp.Config   `yaml:"mcp"`
	LogLevel string         `yaml:"log_level"`
}

// DefaultConfig returns a Config with every subsystem's compiled-in
// defaults applied, the first layer of the §4.18 resolution order.
func DefaultConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// SetDefaults populates each subsystem field that has compiled-in defaults
// from that subsystem's own defaults. RAG and MCP are left at their zero
// values: the zero rag.Config selects the bundled embedder, and no MCP
// servers are configured. It is meant to be called once, on a zero Config, to
// build the first (lowest-priority) layer of the §4.18 resolution order;
// later layers (YAML, env, flags) decode directly onto the result, so an
// explicitly-set zero value (an empty string, a false bool) from a later
// layer is never clobbered by a subsequent call to SetDefaults.
func (c *Config) SetDefaults() {
	c.Server = ServerConfig{Host: "0.0.0.0", Port: 8080}
	c.LLM = llm.DefaultConfig()
	c.LLM.BaseURL = "http://localhost:11434"
	c.Agent = agent.DefaultConfig()
	c.Prompt = prompt.DefaultConfig()
	c.Session = session.DefaultConfig()
	c.Cache = CacheConfig{TTL: 5 * time.Minute, MaxSize: 1000}
	c.Metrics.SetDefaults()
	c.LogLevel = "info"
}
