// -----------------------------------------------------------------------
// Index Storage - vector index over the active document's chunks
// Brute-force squared L2 search; the single-document corpus is small
// enough that a scan beats any index structure
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// activePointerKey is the fixed key of the single active-document record
const activePointerKey = "active"

// activePointer names the document whose chunks are currently searchable.
// Replacement writes the new chunk set first and swaps this record last,
// so a crash mid-replace leaves the previous document intact.
type activePointer struct {
	Key        string `badgerhold:"key"`
	DocumentID string
}

// IndexStorage implements the vector index over badgerhold
type IndexStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	// mu serializes replacement against searches so a reader observes
	// either the fully-old or fully-new chunk set. The manager shares
	// this mutex with the session store and holds it across replace
	// plus session clearing, so a reader also never sees the new
	// document next to transcripts about the old one.
	mu *sync.RWMutex
}

// Compile-time interface assertion
var _ interfaces.IndexStorage = (*IndexStorage)(nil)

// NewIndexStorage creates a new index storage service
func NewIndexStorage(db *BadgerDB, logger arbor.ILogger, mu *sync.RWMutex) *IndexStorage {
	return &IndexStorage{
		db:     db,
		logger: logger,
		mu:     mu,
	}
}

// ReplaceDocument atomically replaces the active document and its chunks.
// The new chunks are written under the new document id, the active
// pointer is swapped, and only then is the previous chunk set deleted.
// On failure before the swap the new records are rolled back and the
// previous document stays searchable.
func (s *IndexStorage) ReplaceDocument(ctx context.Context, doc *models.Document, chunks []*models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceDocumentLocked(ctx, doc, chunks)
}

// replaceDocumentLocked performs the swap. Callers must hold the write lock.
func (s *IndexStorage) replaceDocumentLocked(ctx context.Context, doc *models.Document, chunks []*models.Chunk) error {
	previousID := s.activeDocumentID()

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	for _, chunk := range chunks {
		if err := s.db.Store().Upsert(chunk.ID, chunk); err != nil {
			s.rollbackDocument(doc.ID)
			return fmt.Errorf("failed to store chunk %s: %w", chunk.ID, err)
		}
	}

	pointer := &activePointer{Key: activePointerKey, DocumentID: doc.ID}
	if err := s.db.Store().Upsert(activePointerKey, pointer); err != nil {
		s.rollbackDocument(doc.ID)
		return fmt.Errorf("failed to swap active document: %w", err)
	}

	// The swap is durable; old records are garbage now
	if previousID != "" && previousID != doc.ID {
		s.deleteDocument(previousID)
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("filename", doc.Filename).
		Int("chunk_count", len(chunks)).
		Msg("Replaced active document")

	return nil
}

// Search returns up to k nearest chunks by squared L2 distance, ascending,
// ties broken by lower chunk index. An empty index returns an empty slice.
func (s *IndexStorage) Search(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		return []models.SearchResult{}, nil
	}

	activeID := s.activeDocumentID()
	if activeID == "" {
		return []models.SearchResult{}, nil
	}

	var chunks []models.Chunk
	if err := s.db.Store().Find(&chunks, badgerhold.Where("DocumentID").Eq(activeID)); err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	results := make([]models.SearchResult, 0, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		if len(chunk.Embedding) != len(embedding) {
			return nil, fmt.Errorf("embedding dimension mismatch: query %d, index %d", len(embedding), len(chunk.Embedding))
		}
		results = append(results, models.SearchResult{
			Chunk:    chunk,
			Distance: squaredL2(embedding, chunk.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// ActiveDocument returns the currently indexed document, or nil when
// nothing has been ingested.
func (s *IndexStorage) ActiveDocument(ctx context.Context) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activeID := s.activeDocumentID()
	if activeID == "" {
		return nil, nil
	}

	var doc models.Document
	if err := s.db.Store().Get(activeID, &doc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &doc, nil
}

// Clear removes the active document and all of its chunks. Clearing an
// empty index is a no-op.
func (s *IndexStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

// clearLocked removes all index records. Callers must hold the write lock.
func (s *IndexStorage) clearLocked(ctx context.Context) error {
	if err := s.db.Store().Delete(activePointerKey, &activePointer{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to clear active pointer: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.Chunk{}, nil); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.Document{}, nil); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	s.logger.Info().Msg("Cleared document index")
	return nil
}

// activeDocumentID resolves the active pointer, returning "" when unset.
// Callers must hold the mutex.
func (s *IndexStorage) activeDocumentID() string {
	var pointer activePointer
	if err := s.db.Store().Get(activePointerKey, &pointer); err != nil {
		return ""
	}
	return pointer.DocumentID
}

// rollbackDocument removes a partially written document after a failed
// replace, before the active pointer was swapped.
func (s *IndexStorage) rollbackDocument(docID string) {
	s.deleteDocument(docID)
}

// deleteDocument removes a document record and its chunks
func (s *IndexStorage) deleteDocument(docID string) {
	if err := s.db.Store().DeleteMatching(&models.Chunk{}, badgerhold.Where("DocumentID").Eq(docID)); err != nil {
		s.logger.Warn().Err(err).Str("document_id", docID).Msg("Failed to delete chunks")
	}
	if err := s.db.Store().Delete(docID, &models.Document{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		s.logger.Warn().Err(err).Str("document_id", docID).Msg("Failed to delete document")
	}
}

// squaredL2 computes the squared Euclidean distance between two vectors.
// The square root is omitted; it preserves ordering and saves work.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
