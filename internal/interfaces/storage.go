package interfaces

import (
	"context"

	"github.com/ternarybob/loquor/internal/models"
)

// IndexStorage - vector index over the active document's chunks.
// The index holds at most one document at a time; ReplaceDocument swaps
// the active document atomically so a concurrent Search observes either
// the fully-old or fully-new chunk set, never a mixture.
type IndexStorage interface {
	// ReplaceDocument atomically replaces all chunks with the given
	// document's chunks. On failure the previous chunk set stays intact.
	ReplaceDocument(ctx context.Context, doc *models.Document, chunks []*models.Chunk) error

	// Search returns up to k nearest chunks by squared L2 distance,
	// ascending, ties broken by lower chunk index. An empty index
	// returns an empty slice, not an error.
	Search(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error)

	// ActiveDocument returns the currently indexed document, or nil
	// when nothing has been ingested.
	ActiveDocument(ctx context.Context) (*models.Document, error)

	// Clear removes the active document and all of its chunks
	Clear(ctx context.Context) error
}

// SessionStorage - conversation persistence. Turn appends are serialized
// per session so sequence numbers never interleave or duplicate.
type SessionStorage interface {
	// CreateSession creates a new session with a server-generated id
	CreateSession(ctx context.Context) (*models.ChatSession, error)

	// GetSession returns the session, or common.ErrSessionNotFound
	GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error)

	// AppendTurn appends a turn to the session, assigning the next
	// sequence number.
	AppendTurn(ctx context.Context, sessionID, role, content string) (*models.Turn, error)

	// GetTurns returns all turns of a session ordered by sequence,
	// or common.ErrSessionNotFound for an unknown id.
	GetTurns(ctx context.Context, sessionID string) ([]*models.Turn, error)

	// RecentTurns returns the most recent limit turns ordered by
	// sequence. An unknown session yields an empty slice.
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]*models.Turn, error)

	// ListSessions returns summaries of all sessions ordered by most
	// recent activity, newest first.
	ListSessions(ctx context.Context) ([]*models.SessionSummary, error)

	// ClearAll removes all sessions and turns
	ClearAll(ctx context.Context) error
}

// StorageManager - composite interface for all storage operations.
// Document replacement invalidates every transcript, so the composite
// operations below span the index and the session store under one
// critical section: a concurrent reader sees either the old document
// with its sessions or the new document with none, never a mixture.
type StorageManager interface {
	IndexStorage() IndexStorage
	SessionStorage() SessionStorage

	// ReplaceDocument swaps the active document and clears all chat
	// sessions in one step visible to readers.
	ReplaceDocument(ctx context.Context, doc *models.Document, chunks []*models.Chunk) error

	// Reset clears the document index and all sessions in one step
	// visible to readers.
	Reset(ctx context.Context) error

	Close() error
}
