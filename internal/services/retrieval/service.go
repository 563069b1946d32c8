package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// Service retrieves the chunk texts most relevant to a query by embedding
// the query and searching the vector index.
type Service struct {
	embedder interfaces.EmbeddingService
	index    interfaces.IndexStorage
	topK     int
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.RetrievalService = (*Service)(nil)

// NewService creates a retrieval service. topK is the default result
// count used when the caller passes k <= 0.
func NewService(embedder interfaces.EmbeddingService, index interfaces.IndexStorage, topK int, logger arbor.ILogger) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{
		embedder: embedder,
		index:    index,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve embeds the query and returns the nearest chunk texts in
// relevance order. Fails with common.ErrNoDocument before any provider
// call when nothing has been ingested.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	doc, err := s.index.ActiveDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check document state: %w", err)
	}
	if doc == nil {
		return nil, common.ErrNoDocument
	}

	if k <= 0 {
		k = s.topK
	}

	startTime := time.Now()
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.index.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	texts := make([]string, 0, len(results))
	for _, result := range results {
		texts = append(texts, result.Chunk.Text)
	}

	s.logger.Debug().
		Str("document_id", doc.ID).
		Int("k", k).
		Int("result_count", len(texts)).
		Dur("duration", time.Since(startTime)).
		Msg("Retrieved chunks for query")

	return texts, nil
}
