package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for precondition and user-input failures. Handlers map
// these to HTTP status codes; core services never swallow them.
var (
	// ErrNoDocument is returned when a chat or retrieval operation is
	// attempted before any document has been ingested.
	ErrNoDocument = errors.New("no document ingested")

	// ErrEmptyDocument is returned when an uploaded file contains no
	// extractable text.
	ErrEmptyDocument = errors.New("document is empty or unreadable")

	// ErrUnsupportedFormat is returned for uploads that are not PDF,
	// plain text, or Markdown.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrSessionNotFound is returned when history is requested for an
	// unknown session id.
	ErrSessionNotFound = errors.New("session not found")
)

// ConfigError indicates invalid configuration detected at startup.
// It is fatal and not recoverable at runtime.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// EmbeddingError wraps a transient failure from the embedding provider.
// Callers may retry with backoff; the core never retries silently.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError wraps a transient failure from the generation provider.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation provider: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
