package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadYAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlBody := "server:\n  port: 9090\nllm:\n  model: qwen2.5-coder:14b\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlBody), 0o644))

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "qwen2.5-coder:14b", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched keys keep their compiled-in defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadExpandsEnvVarsInYAMLValues(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TEST_MODEL_NAME", "qwen2.5-coder:32b")

	yamlBody := "llm:\n  model: ${TEST_MODEL_NAME}\n  base_url: ${TEST_OLLAMA_HOST:-http://localhost:11434}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlBody), 0o644))

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-coder:32b", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
}

func TestLoadEnvVarOverridesBeatYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlBody := "llm:\n  model: from-yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlBody), 0o644))
	t.Setenv("SOVEREIGN_LLM_MODEL", "from-env")

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.Model)
}

func TestLoadFlagOverridesBeatEverything(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlBody := "llm:\n  model: from-yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlBody), 0o644))
	t.Setenv("SOVEREIGN_LLM_MODEL", "from-env")

	cfg, err := Load("", Overrides{Model: strPtr("from-flag"), Port: intPtr(1234)})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.LLM.Model)
	assert.Equal(t, 1234, cfg.Server.Port)
}

func TestLoadExplicitConfigPathBypassesSearch(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	explicit := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("log_level: warn\n"), 0o644))

	cfg, err := Load(explicit, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadDotEnvIsReadBeforeEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SOVEREIGN_LLM_MODEL=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SOVEREIGN_LLM_MODEL") })

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.Model)
}
