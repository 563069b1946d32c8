package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Ingest      IngestConfig  `toml:"ingest"`
	Chat        ChatConfig    `toml:"chat"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Claude      ClaudeConfig  `toml:"claude"`
	LLM         LLMConfig     `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// IngestConfig controls document chunking during ingestion
type IngestConfig struct {
	ChunkSize    int `toml:"chunk_size" validate:"gt=0"`     // Target chunk size in characters
	ChunkOverlap int `toml:"chunk_overlap" validate:"gte=0"` // Overlap between consecutive chunks
	BatchSize    int `toml:"batch_size" validate:"gt=0"`     // Max texts per embedding API call
}

// ChatConfig controls retrieval and prompt assembly
type ChatConfig struct {
	TopK          int `toml:"top_k" validate:"gt=0"`          // Chunks retrieved per query
	HistoryWindow int `toml:"history_window" validate:"gt=0"` // Most recent turns included in the prompt
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	ChatModel      string  `toml:"chat_model"`      // Model for chat completions (default: "gemini-2.5-flash")
	EmbedModel     string  `toml:"embed_model"`     // Model for embeddings (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension"` // Embedding output dimensionality (default: 768)
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
	RateLimit      string  `toml:"rate_limit"`      // Minimum interval between API calls (default: "4s" for 15 RPM)
	Temperature    float32 `toml:"temperature"`     // Chat completion temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for chat completions (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API for generation.
	// Embeddings always come from Gemini.
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the generation provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in loquor.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Ingest: IngestConfig{
			ChunkSize:    1000,
			ChunkOverlap: 100,
			BatchSize:    50, // Gemini embedContent accepts batched inputs; keep requests well under payload limits
		},
		Chat: ChatConfig{
			TopK:          5,
			HistoryWindow: 20, // 10 user/model exchanges
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key
			ChatModel:      "gemini-2.5-flash",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 768,
			Timeout:        "2m",
			RateLimit:      "4s", // 15 RPM free tier
			Temperature:    0.2,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for fatal startup errors
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ConfigError{
				Field:  verrs[0].Namespace(),
				Reason: fmt.Sprintf("failed validation '%s'", verrs[0].Tag()),
			}
		}
		return &ConfigError{Field: "config", Reason: err.Error()}
	}

	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return &ConfigError{
			Field:  "ingest.chunk_overlap",
			Reason: fmt.Sprintf("overlap (%d) must be smaller than chunk_size (%d)", c.Ingest.ChunkOverlap, c.Ingest.ChunkSize),
		}
	}

	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return &ConfigError{
			Field:  "llm.default_provider",
			Reason: fmt.Sprintf("unknown provider %q (expected gemini or claude)", c.LLM.DefaultProvider),
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LOQUOR_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("LOQUOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LOQUOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if path := os.Getenv("LOQUOR_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	// Logging configuration
	if level := os.Getenv("LOQUOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Provider keys and selection
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("LOQUOR_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("LOQUOR_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if provider := os.Getenv("LOQUOR_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
