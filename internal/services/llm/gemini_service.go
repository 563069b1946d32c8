package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService provides embeddings and chat completions using Gemini
// models. Requests are paced through a rate limiter so bursts of chunk
// batches stay within the API quota.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// Compile-time interface assertions
var (
	_ interfaces.EmbeddingProvider  = (*GeminiService)(nil)
	_ interfaces.GenerationProvider = (*GeminiService)(nil)
)

// NewGeminiService creates a new Gemini service instance
func NewGeminiService(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set via GEMINI_API_KEY, LOQUOR_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.RateLimit, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		timeout: timeout,
	}

	logger.Info().
		Str("embed_model", config.EmbedModel).
		Str("chat_model", config.ChatModel).
		Int("embed_dimension", config.EmbedDimension).
		Dur("timeout", timeout).
		Dur("rate_limit", interval).
		Msg("Gemini service initialized")

	return service, nil
}

// EmbedBatch generates one embedding per input text in a single API call.
// Vectors come back in input order with the configured dimensionality.
func (s *GeminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &common.EmbeddingError{Err: err}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	outputDim := int32(s.config.EmbedDimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	startTime := time.Now()
	result, err := s.client.Models.EmbedContent(timeoutCtx, s.config.EmbedModel, contents, embeddingConfig)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("batch_size", len(texts)).
			Msg("Embedding batch failed")
		return nil, &common.EmbeddingError{Err: err}
	}

	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, &common.EmbeddingError{
			Err: fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), got),
		}
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if len(emb.Values) != s.config.EmbedDimension {
			return nil, &common.EmbeddingError{
				Err: fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.config.EmbedDimension, len(emb.Values)),
			}
		}
		vectors[i] = emb.Values
	}

	s.logger.Debug().
		Int("batch_size", len(texts)).
		Int("embedding_dim", s.config.EmbedDimension).
		Dur("duration", time.Since(startTime)).
		Msg("Embedding batch completed")

	return vectors, nil
}

// Dimension returns the configured embedding dimensionality
func (s *GeminiService) Dimension() int {
	return s.config.EmbedDimension
}

// Chat generates a completion for the conversation history
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", &common.GenerationError{Err: fmt.Errorf("messages cannot be empty")}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", &common.GenerationError{Err: err}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", &common.GenerationError{Err: err}
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	startTime := time.Now()
	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.ChatModel, contents, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Chat completion failed")
		return "", &common.GenerationError{Err: err}
	}

	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", &common.GenerationError{Err: fmt.Errorf("no response generated from chat model")}
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Chat completion completed")

	return response.String(), nil
}

// Model returns the chat model name
func (s *GeminiService) Model() string {
	return s.config.ChatModel
}

// HealthCheck exercises the embedding model with a lightweight probe
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	vectors, err := s.EmbedBatch(probeCtx, []string{"health check probe"})
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	s.logger.Debug().Msg("Gemini health check passed")
	return nil
}

// Close releases the client reference. The genai client does not require
// explicit cleanup.
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}

// convertMessagesToGemini converts messages to Gemini Content format,
// extracting the first system message for use as SystemInstruction.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	hasUser := false

	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		geminiRole := genai.RoleUser
		if msg.Role == "model" || msg.Role == "assistant" {
			geminiRole = genai.RoleModel
		} else {
			hasUser = true
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	if !hasUser {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	return contents, systemText, nil
}
