package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
	"github.com/ternarybob/loquor/internal/services/chunker"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return []float32{0, 0}, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }

type fakeIndex struct {
	doc     *models.Document
	chunks  []*models.Chunk
	cleared int
}

func (f *fakeIndex) ReplaceDocument(ctx context.Context, doc *models.Document, chunks []*models.Chunk) error {
	f.doc = doc
	f.chunks = chunks
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error) {
	return nil, nil
}

func (f *fakeIndex) ActiveDocument(ctx context.Context) (*models.Document, error) {
	return f.doc, nil
}

func (f *fakeIndex) Clear(ctx context.Context) error {
	f.cleared++
	f.doc = nil
	f.chunks = nil
	return nil
}

type fakeSessions struct {
	cleared int
}

func (f *fakeSessions) CreateSession(ctx context.Context) (*models.ChatSession, error) {
	return &models.ChatSession{ID: "sess_1"}, nil
}

func (f *fakeSessions) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	return nil, common.ErrSessionNotFound
}

func (f *fakeSessions) AppendTurn(ctx context.Context, sessionID, role, content string) (*models.Turn, error) {
	return nil, common.ErrSessionNotFound
}

func (f *fakeSessions) GetTurns(ctx context.Context, sessionID string) ([]*models.Turn, error) {
	return nil, common.ErrSessionNotFound
}

func (f *fakeSessions) RecentTurns(ctx context.Context, sessionID string, limit int) ([]*models.Turn, error) {
	return nil, nil
}

func (f *fakeSessions) ListSessions(ctx context.Context) ([]*models.SessionSummary, error) {
	return nil, nil
}

func (f *fakeSessions) ClearAll(ctx context.Context) error {
	f.cleared++
	return nil
}

// fakeStorage composes the index and session fakes the way the badger
// manager does, clearing sessions whenever the document is replaced
type fakeStorage struct {
	index    *fakeIndex
	sessions *fakeSessions
}

func (f *fakeStorage) IndexStorage() interfaces.IndexStorage     { return f.index }
func (f *fakeStorage) SessionStorage() interfaces.SessionStorage { return f.sessions }

func (f *fakeStorage) ReplaceDocument(ctx context.Context, doc *models.Document, chunks []*models.Chunk) error {
	if err := f.index.ReplaceDocument(ctx, doc, chunks); err != nil {
		return err
	}
	return f.sessions.ClearAll(ctx)
}

func (f *fakeStorage) Reset(ctx context.Context) error {
	if err := f.index.Clear(ctx); err != nil {
		return err
	}
	return f.sessions.ClearAll(ctx)
}

func (f *fakeStorage) Close() error { return nil }

func newTestService(t *testing.T, extractor *fakeExtractor, embedder *fakeEmbedder, index *fakeIndex, sessions *fakeSessions) *Service {
	t.Helper()
	splitter, err := chunker.NewSplitter(50, 10)
	require.NoError(t, err)
	storage := &fakeStorage{index: index, sessions: sessions}
	return NewService(extractor, splitter, embedder, storage, arbor.NewLogger())
}

func TestIngestHappyPath(t *testing.T) {
	extractor := &fakeExtractor{text: strings.Repeat("Some sentence here. ", 10)}
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	sessions := &fakeSessions{}
	service := newTestService(t, extractor, embedder, index, sessions)

	summary, err := service.Ingest(context.Background(), "doc.txt", []byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "doc.txt", summary.Filename)
	assert.Greater(t, summary.ChunkCount, 1)

	require.NotNil(t, index.doc)
	assert.True(t, strings.HasPrefix(index.doc.ID, "doc_"))
	assert.Equal(t, "doc.txt", index.doc.Filename)
	assert.Equal(t, summary.ChunkCount, len(index.chunks))

	// Chunk ids and indexes line up with the document
	for i, chunk := range index.chunks {
		assert.Equal(t, fmt.Sprintf("%s:%d", index.doc.ID, i), chunk.ID)
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, index.doc.ID, chunk.DocumentID)
		assert.Len(t, chunk.Embedding, 2)
	}

	// Replacing the document invalidates existing transcripts
	assert.Equal(t, 1, sessions.cleared)
}

func TestIngestEmptyDocument(t *testing.T) {
	extractor := &fakeExtractor{text: "   \n\t  "}
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	sessions := &fakeSessions{}
	service := newTestService(t, extractor, embedder, index, sessions)

	_, err := service.Ingest(context.Background(), "empty.txt", []byte{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEmptyDocument))

	// No provider calls, no index writes, sessions untouched
	assert.Zero(t, embedder.calls)
	assert.Nil(t, index.doc)
	assert.Zero(t, sessions.cleared)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	extractor := &fakeExtractor{err: fmt.Errorf("%w: .docx", common.ErrUnsupportedFormat)}
	service := newTestService(t, extractor, &fakeEmbedder{}, &fakeIndex{}, &fakeSessions{})

	_, err := service.Ingest(context.Background(), "doc.docx", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
}

func TestIngestEmbeddingFailureLeavesIndexAlone(t *testing.T) {
	extractor := &fakeExtractor{text: "Valid document text."}
	embedder := &fakeEmbedder{err: &common.EmbeddingError{Err: errors.New("quota exceeded")}}
	index := &fakeIndex{}
	sessions := &fakeSessions{}
	service := newTestService(t, extractor, embedder, index, sessions)

	_, err := service.Ingest(context.Background(), "doc.txt", []byte("x"))
	require.Error(t, err)

	var embErr *common.EmbeddingError
	assert.True(t, errors.As(err, &embErr))
	assert.Nil(t, index.doc)
	assert.Zero(t, sessions.cleared)
}

func TestStatus(t *testing.T) {
	index := &fakeIndex{}
	service := newTestService(t, &fakeExtractor{text: "Document text here."}, &fakeEmbedder{}, index, &fakeSessions{})

	status, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.HasDocument)

	_, err = service.Ingest(context.Background(), "doc.txt", []byte("x"))
	require.NoError(t, err)

	status, err = service.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.HasDocument)
	assert.Equal(t, "doc.txt", status.Filename)
	assert.Greater(t, status.ChunkCount, 0)
}

func TestClearAll(t *testing.T) {
	index := &fakeIndex{}
	sessions := &fakeSessions{}
	service := newTestService(t, &fakeExtractor{text: "Document text here."}, &fakeEmbedder{}, index, sessions)

	_, err := service.Ingest(context.Background(), "doc.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, service.ClearAll(context.Background()))
	assert.Equal(t, 1, index.cleared)
	assert.Equal(t, 2, sessions.cleared) // once after ingest, once on clear

	status, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.HasDocument)
}
