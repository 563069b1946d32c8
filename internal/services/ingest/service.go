// -----------------------------------------------------------------------
// Ingest Service - document upload pipeline
// Extract, chunk, embed, and index an uploaded file as the single
// active document
// -----------------------------------------------------------------------

package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
	"github.com/ternarybob/loquor/internal/services/chunker"
)

// Service implements the ingestion pipeline. Ingests are serialized; two
// concurrent uploads would otherwise race on the active document swap.
type Service struct {
	extractor interfaces.TextExtractor
	splitter  *chunker.Splitter
	embedder  interfaces.EmbeddingService
	storage   interfaces.StorageManager
	logger    arbor.ILogger

	mu sync.Mutex
}

// Compile-time interface assertion
var _ interfaces.IngestService = (*Service)(nil)

// NewService creates an ingest service
func NewService(
	extractor interfaces.TextExtractor,
	splitter *chunker.Splitter,
	embedder interfaces.EmbeddingService,
	storage interfaces.StorageManager,
	logger arbor.ILogger,
) *Service {
	return &Service{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		storage:   storage,
		logger:    logger,
	}
}

// Ingest parses, chunks, embeds, and indexes an uploaded file. A prior
// document is replaced and all chat sessions are cleared, since their
// transcripts referred to content that is no longer indexed.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (*models.IngestSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := time.Now()

	text, err := s.extractor.ExtractText(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("extraction failed for %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrEmptyDocument, filename)
	}

	texts := s.splitter.Chunk(text)
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrEmptyDocument, filename)
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:         common.NewDocumentID(),
		Filename:   filename,
		TextLength: len(text),
		ChunkCount: len(texts),
		IngestedAt: time.Now().UTC(),
	}

	chunks := make([]*models.Chunk, len(texts))
	for i, chunkText := range texts {
		chunks[i] = &models.Chunk{
			ID:         fmt.Sprintf("%s:%d", doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Text:       chunkText,
			Embedding:  vectors[i],
		}
	}

	// Old transcripts are grounded in the replaced document, so the swap
	// and the session clear happen as one step visible to readers
	if err := s.storage.ReplaceDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("indexing failed for %s: %w", filename, err)
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("filename", filename).
		Int("text_length", doc.TextLength).
		Int("chunk_count", doc.ChunkCount).
		Dur("duration", time.Since(startTime)).
		Msg("Document ingested")

	return &models.IngestSummary{
		Filename:   filename,
		ChunkCount: len(chunks),
	}, nil
}

// Status reports whether a document is currently ingested
func (s *Service) Status(ctx context.Context) (*models.DocumentStatus, error) {
	doc, err := s.storage.IndexStorage().ActiveDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check document state: %w", err)
	}
	if doc == nil {
		return &models.DocumentStatus{HasDocument: false}, nil
	}
	return &models.DocumentStatus{
		HasDocument: true,
		Filename:    doc.Filename,
		ChunkCount:  doc.ChunkCount,
	}, nil
}

// ClearAll removes the document, its chunks, and all sessions
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}

	s.logger.Info().Msg("Cleared document and all sessions")
	return nil
}
