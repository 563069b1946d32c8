package llm

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// NewGenerationProvider returns the generation provider selected by
// llm.default_provider. Gemini reuses the embedding service's client so
// both capabilities share one connection and rate limiter.
func NewGenerationProvider(config *common.Config, gemini *GeminiService, logger arbor.ILogger) (interfaces.GenerationProvider, error) {
	switch config.LLM.DefaultProvider {
	case "claude":
		return NewClaudeService(&config.Claude, logger)
	case "gemini", "":
		return gemini, nil
	default:
		return nil, &common.ConfigError{
			Field:  "llm.default_provider",
			Reason: "must be 'gemini' or 'claude'",
		}
	}
}
