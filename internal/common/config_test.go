package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 1000, config.Ingest.ChunkSize)
	assert.Equal(t, 100, config.Ingest.ChunkOverlap)
	assert.Equal(t, 5, config.Chat.TopK)
	assert.Equal(t, 768, config.Gemini.EmbedDimension)
	assert.Equal(t, "gemini-embedding-001", config.Gemini.EmbedModel)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)

	require.NoError(t, config.Validate())
}

func TestValidateOverlapBounds(t *testing.T) {
	config := NewDefaultConfig()
	config.Ingest.ChunkSize = 100
	config.Ingest.ChunkOverlap = 100

	err := config.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "ingest.chunk_overlap", cfgErr.Field)
}

func TestValidateUnknownProvider(t *testing.T) {
	config := NewDefaultConfig()
	config.LLM.DefaultProvider = "openai"

	err := config.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "llm.default_provider", cfgErr.Field)
}

func TestValidateInvalidPort(t *testing.T) {
	config := NewDefaultConfig()
	config.Server.Port = 0

	var cfgErr *ConfigError
	assert.True(t, errors.As(config.Validate(), &cfgErr))
}

func TestLoadFromFilesMerge(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[server]
port = 9000
host = "0.0.0.0"

[ingest]
chunk_size = 500
`), 0644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[server]
port = 9100
host = "0.0.0.0"
`), 0644))

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// Later files win; untouched settings keep earlier or default values
	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 500, config.Ingest.ChunkSize)
	assert.Equal(t, 100, config.Ingest.ChunkOverlap)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/loquor.toml")
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOQUOR_SERVER_PORT", "7777")
	t.Setenv("LOQUOR_GEMINI_API_KEY", "test-key")
	t.Setenv("LOQUOR_LLM_PROVIDER", "claude")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7777, config.Server.Port)
	assert.Equal(t, "test-key", config.Gemini.APIKey)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 9999, "127.0.0.1")
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)

	// Zero values leave the config alone
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
}
