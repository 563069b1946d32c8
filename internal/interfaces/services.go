package interfaces

import (
	"context"

	"github.com/ternarybob/loquor/internal/models"
)

// EmbeddingService orchestrates embedding generation, batching document
// chunks into as few provider calls as allowed.
type EmbeddingService interface {
	// EmbedTexts returns one vector per input text, in input order
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query via the same path as indexing
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimension returns the fixed embedding dimensionality
	Dimension() int
}

// RetrievalService returns the chunk texts most relevant to a query.
type RetrievalService interface {
	// Retrieve embeds the query and searches the index. Fails with
	// common.ErrNoDocument before any provider call when nothing has
	// been ingested.
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// IngestService ingests uploaded documents and manages document state.
type IngestService interface {
	// Ingest parses, chunks, embeds, and indexes an uploaded file,
	// replacing any prior document and clearing all sessions.
	Ingest(ctx context.Context, filename string, data []byte) (*models.IngestSummary, error)

	// Status reports whether a document is currently ingested
	Status(ctx context.Context) (*models.DocumentStatus, error)

	// ClearAll removes the document, its chunks, and all sessions
	ClearAll(ctx context.Context) error
}

// AnswerResult is the outcome of a chat exchange
type AnswerResult struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// ChatService answers queries grounded in the ingested document and
// maintains conversation state.
type ChatService interface {
	// Answer retrieves grounding chunks, assembles a prompt with prior
	// turns, calls the generation provider, and persists the exchange.
	// An absent or unknown session id starts a new session.
	Answer(ctx context.Context, query, sessionID string) (*AnswerResult, error)

	// ListSessions returns session summaries, newest activity first
	ListSessions(ctx context.Context) ([]*models.SessionSummary, error)

	// GetHistory returns a session's turns in order, or
	// common.ErrSessionNotFound.
	GetHistory(ctx context.Context, sessionID string) ([]*models.Turn, error)

	// HealthCheck verifies the chat pipeline's providers are reachable
	HealthCheck(ctx context.Context) error
}
