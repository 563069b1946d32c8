package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/loquor/internal/common"
)

// separators are tried coarse to fine: paragraph break, line break,
// sentence-ending punctuation, word space, then single characters.
// Each separator stays attached to the piece it terminates, so the clean
// segments always concatenate back to the original text.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""}

// Splitter splits raw document text into overlapping segments respecting
// natural boundaries.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter creates a splitter for the given chunk size and overlap.
// Returns a ConfigError when overlap >= size or size is not positive.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, &common.ConfigError{Field: "ingest.chunk_size", Reason: "must be positive"}
	}
	if overlap < 0 {
		return nil, &common.ConfigError{Field: "ingest.chunk_overlap", Reason: "must not be negative"}
	}
	if overlap >= size {
		return nil, &common.ConfigError{Field: "ingest.chunk_overlap", Reason: "must be smaller than chunk_size"}
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Chunk splits text into ordered chunks of at most size characters, each
// chunk after the first prefixed with the tail of its predecessor so
// consecutive chunks share at least the configured overlap. Empty text
// yields zero chunks.
func (s *Splitter) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	segments := s.split(text, 0)
	clean := s.merge(segments)

	if s.overlap == 0 || len(clean) < 2 {
		return clean
	}

	chunks := make([]string, len(clean))
	chunks[0] = clean[0]
	for i := 1; i < len(clean); i++ {
		chunks[i] = overlapSuffix(clean[i-1], s.overlap) + clean[i]
	}
	return chunks
}

// split recursively partitions text into pieces no longer than size,
// trying the separator at the given level and recursing with finer
// separators for pieces that remain too long.
func (s *Splitter) split(text string, level int) []string {
	if len(text) <= s.size {
		return []string{text}
	}

	sep := separators[level]
	if sep == "" {
		return s.hardSplit(text)
	}

	pieces := splitAfter(text, sep)
	if len(pieces) == 1 {
		// Separator not present; try the next finer one
		return s.split(text, level+1)
	}

	var out []string
	for _, piece := range pieces {
		if len(piece) > s.size {
			out = append(out, s.split(piece, level+1)...)
		} else {
			out = append(out, piece)
		}
	}
	return out
}

// hardSplit cuts text into size-length pieces at rune boundaries
func (s *Splitter) hardSplit(text string) []string {
	var out []string
	start := 0
	end := 0
	for end < len(text) {
		_, width := utf8.DecodeRuneInString(text[end:])
		if end+width-start > s.size && end > start {
			out = append(out, text[start:end])
			start = end
		}
		end += width
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// merge greedily joins adjacent pieces while the result stays within size
func (s *Splitter) merge(pieces []string) []string {
	var out []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > s.size {
			out = append(out, current.String())
			current.Reset()
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// overlapSuffix returns the trailing overlap characters of prev, extended
// backward to the nearest whitespace boundary (within one extra overlap
// window) so the shared region does not start mid-word. Extending backward
// keeps the shared region at least overlap characters long.
func overlapSuffix(prev string, overlap int) string {
	if len(prev) <= overlap {
		return prev
	}

	offset := len(prev) - overlap
	// Back up to a rune boundary
	for offset > 0 && !utf8.RuneStart(prev[offset]) {
		offset--
	}

	limit := len(prev) - 2*overlap
	if limit < 0 {
		limit = 0
	}
	for i := offset; i > limit; i-- {
		r, _ := utf8.DecodeRuneInString(prev[i-1:])
		if unicode.IsSpace(r) {
			return prev[i:]
		}
	}
	return prev[offset:]
}

// splitAfter partitions text on sep, keeping sep at the end of each piece
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	// SplitAfter may produce a trailing empty piece when text ends in sep
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
