package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "chromem", cfg.Store.Backend)
	assert.Equal(t, "personal_knowledge", cfg.Store.Collection)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 500, cfg.Chunking.MinTokens)
	assert.Equal(t, 800, cfg.Chunking.MaxTokens)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoadConfigYAMLOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":9090"
store:
  backend: postgres
  dsn: postgres://localhost/mentor
retrieval:
  top_k: 5
chunking:
  min_tokens: 100
  max_tokens: 200
`)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/mentor", cfg.Store.DSN)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 100, cfg.Chunking.MinTokens)

	// sections absent from the file keep their defaults
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":9090"
`)
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("LLM_MODEL", "claude-override")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "claude-override", cfg.LLM.Model)
}

func TestLoadConfigLLMKeyAliases(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic-key", cfg.LLM.Key)

	// the provider-neutral name wins when both are set
	t.Setenv("LLM_API_KEY", "neutral-key")

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "neutral-key", cfg.LLM.Key)
}

func TestLoadConfigInvalidChunkingPolicy(t *testing.T) {
	path := writeConfigFile(t, `
chunking:
  min_tokens: 900
  max_tokens: 800
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsNonPositiveTopK(t *testing.T) {
	path := writeConfigFile(t, `
retrieval:
  top_k: -1
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "top_k")
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a map")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestPolicy(t *testing.T) {
	cfg := Config{Chunking: ChunkingConfig{MinTokens: 10, MaxTokens: 20}}
	p := cfg.Policy()
	assert.Equal(t, 10, p.MinTokens)
	assert.Equal(t, 20, p.MaxTokens)
}
