// -----------------------------------------------------------------------
// Text Extractor Service - Convert uploaded documents to plain text
// Format is detected from the filename extension
// -----------------------------------------------------------------------

package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// Extractor implements the TextExtractor interface for PDF, Markdown,
// and plain text uploads.
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.TextExtractor = (*Extractor)(nil)

// NewExtractor creates a new text extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{
		logger:  logger,
		tempDir: pdfTempDir(),
	}
}

// ExtractText converts the uploaded file to plain text. Unsupported
// extensions surface common.ErrUnsupportedFormat.
func (e *Extractor) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return e.extractPDF(ctx, data)
	case ".md", ".markdown":
		return extractMarkdown(data)
	case ".txt":
		return extractPlainText(data)
	default:
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, ext)
	}
}

// extractPlainText decodes a text upload, rejecting invalid UTF-8
func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text file is not valid UTF-8", common.ErrUnsupportedFormat)
	}
	return string(data), nil
}
