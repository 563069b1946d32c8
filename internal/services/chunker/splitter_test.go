package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitterValidation(t *testing.T) {
	_, err := NewSplitter(0, 0)
	assert.Error(t, err)

	_, err = NewSplitter(100, 100)
	assert.Error(t, err)

	_, err = NewSplitter(100, 150)
	assert.Error(t, err)

	_, err = NewSplitter(100, -1)
	assert.Error(t, err)

	s, err := NewSplitter(100, 20)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestChunkEmptyText(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	assert.Empty(t, s.Chunk(""))
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	chunks := s.Chunk("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestChunkReconstructionWithoutOverlap(t *testing.T) {
	s, err := NewSplitter(40, 0)
	require.NoError(t, err)

	text := "First paragraph with some words.\n\nSecond paragraph follows here. It has two sentences.\n\nThird paragraph closes the document with a final thought."
	chunks := s.Chunk(text)
	require.NotEmpty(t, chunks)

	// With no overlap the chunks partition the text exactly
	assert.Equal(t, text, strings.Join(chunks, ""))
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40, "chunk %d exceeds size", i)
	}
}

func TestChunkPrefersParagraphBoundaries(t *testing.T) {
	s, err := NewSplitter(30, 0)
	require.NoError(t, err)

	text := "Alpha paragraph here.\n\nBeta paragraph here."
	chunks := s.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha paragraph here.\n\n", chunks[0])
	assert.Equal(t, "Beta paragraph here.", chunks[1])
}

func TestChunkSentenceBoundariesWithOverlap(t *testing.T) {
	s, err := NewSplitter(5, 2)
	require.NoError(t, err)

	chunks := s.Chunk("A. B. C. D.")
	require.Len(t, chunks, 3)

	// First chunk ends on a sentence break
	assert.Equal(t, "A. ", chunks[0])

	// Every later chunk carries at least the last 2 characters of its
	// predecessor's fresh content. The final two sentences fit one chunk
	// together, so the greedy merge keeps them joined.
	assert.Equal(t, ". B. ", chunks[1])
	assert.Equal(t, ". C. D.", chunks[2])

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 5+2, "chunk %d exceeds size plus overlap", i)
	}
}

func TestChunkOverlapSharedRegion(t *testing.T) {
	s, err := NewSplitter(25, 10)
	require.NoError(t, err)

	text := "The quick brown fox jumps over the lazy dog near the river bank today."
	chunks := s.Chunk(text)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		// Each chunk's prefix must be a suffix of the text seen so far
		overlapFound := false
		for n := len(chunks[i]); n > 0; n-- {
			if strings.HasSuffix(strings.Join(chunks[:i], ""), chunks[i][:n]) {
				assert.GreaterOrEqual(t, n, 10, "chunk %d shares fewer than overlap characters", i)
				overlapFound = true
				break
			}
		}
		if !overlapFound {
			t.Fatalf("chunk %d shares no prefix with preceding text", i)
		}
	}
}

func TestChunkHardSplitWithoutSeparators(t *testing.T) {
	s, err := NewSplitter(5, 0)
	require.NoError(t, err)

	chunks := s.Chunk("aaaaaaaaaaaa")
	assert.Equal(t, []string{"aaaaa", "aaaaa", "aa"}, chunks)
}

func TestChunkGreedyMerge(t *testing.T) {
	s, err := NewSplitter(10, 0)
	require.NoError(t, err)

	chunks := s.Chunk("one two three four")
	assert.Equal(t, []string{"one two ", "three four"}, chunks)
}

func TestChunkDeterministic(t *testing.T) {
	s, err := NewSplitter(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("Sentences repeat here. More words follow now. ", 20)
	first := s.Chunk(text)
	second := s.Chunk(text)
	assert.Equal(t, first, second)
}

func TestChunkPreservesUTF8(t *testing.T) {
	s, err := NewSplitter(8, 0)
	require.NoError(t, err)

	text := strings.Repeat("héllo", 4)
	chunks := s.Chunk(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, chunk := range chunks {
		assert.True(t, strings.ToValidUTF8(chunk, "") == chunk, "chunk split mid-rune: %q", chunk)
	}
}
