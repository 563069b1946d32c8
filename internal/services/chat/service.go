// -----------------------------------------------------------------------
// Chat Service - answer queries grounded in the ingested document
// Assembles retrieval context and conversation history into a single
// generation request and persists the exchange
// -----------------------------------------------------------------------

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// systemPrompt constrains the model to the retrieved context
const systemPrompt = `You are a helpful assistant that answers questions based on the provided context.
Rules:
- Only use information from the context to answer
- If the context doesn't contain relevant information, say "Document has no information regarding this."
- Be concise and direct
- Do not use markdown formatting`

// chunkSeparator joins retrieved chunks inside the prompt context block
const chunkSeparator = "\n---\n"

// Service implements the chat pipeline
type Service struct {
	retrieval     interfaces.RetrievalService
	sessions      interfaces.SessionStorage
	generator     interfaces.GenerationProvider
	embedder      interfaces.EmbeddingProvider
	topK          int
	historyWindow int
	logger        arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.ChatService = (*Service)(nil)

// NewService creates a chat service. historyWindow caps how many prior
// turns are replayed to the model per exchange.
func NewService(
	retrieval interfaces.RetrievalService,
	sessions interfaces.SessionStorage,
	generator interfaces.GenerationProvider,
	embedder interfaces.EmbeddingProvider,
	topK int,
	historyWindow int,
	logger arbor.ILogger,
) *Service {
	if topK <= 0 {
		topK = 5
	}
	if historyWindow <= 0 {
		historyWindow = 20
	}
	return &Service{
		retrieval:     retrieval,
		sessions:      sessions,
		generator:     generator,
		embedder:      embedder,
		topK:          topK,
		historyWindow: historyWindow,
		logger:        logger,
	}
}

// Answer runs one chat exchange: retrieve grounding chunks, assemble the
// prompt with prior turns, call the generation provider, and persist both
// turns. The user turn is persisted even when generation fails, so the
// question is not lost from the transcript.
func (s *Service) Answer(ctx context.Context, query, sessionID string) (*interfaces.AnswerResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	chunks, err := s.retrieval.Retrieve(ctx, query, s.topK)
	if err != nil {
		return nil, err
	}

	session, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history, err := s.sessions.RecentTurns(ctx, session.ID, s.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	messages := s.buildMessages(query, chunks, history)

	if _, err := s.sessions.AppendTurn(ctx, session.ID, models.RoleUser, query); err != nil {
		return nil, fmt.Errorf("failed to persist user turn: %w", err)
	}

	startTime := time.Now()
	answer, err := s.generator.Chat(ctx, messages)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("Generation failed; user turn retained")
		return nil, err
	}

	if _, err := s.sessions.AppendTurn(ctx, session.ID, models.RoleModel, answer); err != nil {
		return nil, fmt.Errorf("failed to persist model turn: %w", err)
	}

	s.logger.Info().
		Str("session_id", session.ID).
		Int("context_chunks", len(chunks)).
		Int("history_turns", len(history)).
		Dur("duration", time.Since(startTime)).
		Msg("Chat exchange completed")

	return &interfaces.AnswerResult{
		Answer:    answer,
		SessionID: session.ID,
	}, nil
}

// ListSessions returns session summaries, newest activity first
func (s *Service) ListSessions(ctx context.Context) ([]*models.SessionSummary, error) {
	return s.sessions.ListSessions(ctx)
}

// GetHistory returns a session's turns in order
func (s *Service) GetHistory(ctx context.Context, sessionID string) ([]*models.Turn, error) {
	return s.sessions.GetTurns(ctx, sessionID)
}

// HealthCheck verifies both providers are reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.embedder.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding provider unhealthy: %w", err)
	}
	if err := s.generator.HealthCheck(ctx); err != nil {
		return fmt.Errorf("generation provider unhealthy: %w", err)
	}
	return nil
}

// resolveSession returns the named session, or a fresh one when the id is
// absent or unknown.
func (s *Service) resolveSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID != "" {
		session, err := s.sessions.GetSession(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		if err != common.ErrSessionNotFound {
			return nil, fmt.Errorf("failed to resolve session: %w", err)
		}
		s.logger.Debug().Str("session_id", sessionID).Msg("Unknown session id; starting new session")
	}
	return s.sessions.CreateSession(ctx)
}

// buildMessages assembles the generation request: system prompt, prior
// turns in chronological order, then the new user message carrying the
// retrieved context and the question.
func (s *Service) buildMessages(query string, chunks []string, history []*models.Turn) []interfaces.Message {
	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: systemPrompt,
	})

	for _, turn := range history {
		messages = append(messages, interfaces.Message{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	context := strings.Join(chunks, chunkSeparator)
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", context, query)
	messages = append(messages, interfaces.Message{
		Role:    models.RoleUser,
		Content: prompt,
	})

	return messages
}
