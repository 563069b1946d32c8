package interfaces

import (
	"context"
)

// TextExtractor converts an uploaded file into plain text. The format is
// detected from the filename extension; unsupported formats surface
// common.ErrUnsupportedFormat.
type TextExtractor interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}
