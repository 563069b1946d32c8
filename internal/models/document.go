package models

import (
	"time"
)

// Document represents the single active document in a deployment.
// A new upload replaces the prior document wholesale; chunks are
// destroyed with their owning document.
type Document struct {
	ID         string    `json:"id"`       // doc_{uuid}
	Filename   string    `json:"filename"` // Original upload filename
	TextLength int       `json:"text_length"`
	ChunkCount int       `json:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Chunk is a contiguous substring of the document's text paired with its
// embedding vector. Consecutive chunks overlap by the configured number
// of characters. Immutable after ingestion.
type Chunk struct {
	ID         string    `json:"id"`          // {document_id}:{index}
	DocumentID string    `json:"document_id"` // Owning document
	Index      int       `json:"index"`       // Sequence index, used for tie-breaking in search
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

// SearchResult pairs a chunk with its squared L2 distance to the query
// vector. Smaller distance means more similar.
type SearchResult struct {
	Chunk    *Chunk  `json:"chunk"`
	Distance float64 `json:"distance"`
}

// DocumentStatus reports whether a document is currently ingested
type DocumentStatus struct {
	HasDocument bool   `json:"has_document"`
	Filename    string `json:"filename,omitempty"`
	ChunkCount  int    `json:"chunk_count,omitempty"`
}

// IngestSummary is returned after a successful upload
type IngestSummary struct {
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}
