package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// ClaudeService provides chat completions using the Anthropic Claude API.
// Claude exposes no embeddings endpoint, so this service only implements
// generation; embeddings always go through Gemini.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// Compile-time interface assertion
var _ interfaces.GenerationProvider = (*ClaudeService)(nil)

// NewClaudeService creates a new Claude service instance
func NewClaudeService(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set via ANTHROPIC_API_KEY, LOQUOR_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	service := &ClaudeService{
		config:    config,
		logger:    logger,
		client:    client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Info().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude service initialized")

	return service, nil
}

// Chat generates a completion for the conversation history
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", &common.GenerationError{Err: fmt.Errorf("messages cannot be empty")}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", &common.GenerationError{Err: err}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages:  claudeMessages,
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	startTime := time.Now()
	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Claude completion failed")
		return "", &common.GenerationError{Err: err}
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			response.WriteString(text.Text)
		}
	}

	if response.Len() == 0 {
		return "", &common.GenerationError{Err: fmt.Errorf("no response generated from Claude API")}
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude completion completed")

	return response.String(), nil
}

// Model returns the configured Claude model name
func (s *ClaudeService) Model() string {
	return s.config.Model
}

// HealthCheck exercises the model with a minimal probe
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	response, err := s.Chat(probeCtx, []interfaces.Message{
		{Role: "user", Content: "ping"},
	})
	if err != nil {
		return fmt.Errorf("chat probe failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("chat probe returned empty response")
	}

	s.logger.Debug().Msg("Claude health check passed")
	return nil
}

// Close is a no-op; the Claude client holds no persistent resources
func (s *ClaudeService) Close() error {
	return nil
}

// convertMessagesToClaude converts messages to Claude MessageParam format,
// extracting the first system message for the System parameter.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	hasUser := false

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			if systemText == "" {
				systemText = msg.Content
			}
		case "model", "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			hasUser = true
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	if !hasUser {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	return claudeMessages, systemText, nil
}
