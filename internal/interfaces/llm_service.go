package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "model", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// EmbeddingProvider defines the external embedding capability. One vector
// is returned per input text, in input order, with a fixed dimension for
// the lifetime of an index. Implementations batch inputs into as few API
// calls as the provider allows.
type EmbeddingProvider interface {
	// EmbedBatch generates one embedding vector per input text.
	// A query embedding is a one-element batch of the same path, so
	// indexing-time and query-time vectors share the same space.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed embedding dimensionality
	Dimension() int

	// HealthCheck verifies the provider is reachable
	HealthCheck(ctx context.Context) error
}

// GenerationProvider defines the external text generation capability.
type GenerationProvider interface {
	// Chat generates a completion for the conversation history. The
	// messages slice contains the system prompt, prior turns, and the
	// new user message in chronological order.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Model returns the provider's model name for status reporting
	Model() string

	// HealthCheck verifies the provider is reachable
	HealthCheck(ctx context.Context) error

	// Close releases provider resources
	Close() error
}
