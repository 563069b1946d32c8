package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// Service batches embedding work through the underlying provider. Chunk
// sets are split into batches of at most batchSize texts so a large
// document becomes a handful of API calls instead of one per chunk.
type Service struct {
	provider  interfaces.EmbeddingProvider
	batchSize int
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.EmbeddingService = (*Service)(nil)

// NewService creates an embedding service over the given provider
func NewService(provider interfaces.EmbeddingProvider, batchSize int, logger arbor.ILogger) *Service {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Service{
		provider:  provider,
		batchSize: batchSize,
		logger:    logger,
	}
}

// EmbedTexts returns one vector per input text, in input order. A failed
// batch fails the whole call; partial results are never returned.
func (s *Service) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	startTime := time.Now()
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := s.provider.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d failed: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, &common.EmbeddingError{
				Err: fmt.Errorf("provider returned %d vectors for %d texts", len(batch), end-start),
			}
		}
		vectors = append(vectors, batch...)
	}

	s.logger.Debug().
		Int("text_count", len(texts)).
		Int("batch_size", s.batchSize).
		Dur("duration", time.Since(startTime)).
		Msg("Embedded texts")

	return vectors, nil
}

// EmbedQuery embeds a single query as a one-element batch so query
// vectors share the same space as indexed chunk vectors.
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := s.provider.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	if len(vectors) != 1 {
		return nil, &common.EmbeddingError{
			Err: fmt.Errorf("provider returned %d vectors for single query", len(vectors)),
		}
	}
	return vectors[0], nil
}

// Dimension returns the provider's fixed embedding dimensionality
func (s *Service) Dimension() int {
	return s.provider.Dimension()
}
