package extract

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"docmind/internal/core/apperr"
	"docmind/internal/core/schema"
)

// Extractor converts one supported file format into cleaned plain text.
// Implementations never see other formats: dispatch happens in Registry
// before the pipeline touches the content.
type Extractor interface {
	// Supports reports whether this extractor handles the detected MIME type.
	Supports(mime *mimetype.MIME) bool

	// Extract produces a Document from raw file bytes. The returned
	// document has ID and FileName already set by the caller.
	Extract(ctx context.Context, data []byte, doc *schema.Document) error
}

// Registry detects a file's format and dispatches to the matching extractor.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry over the default extractor set.
func NewRegistry() *Registry {
	return &Registry{
		extractors: []Extractor{
			NewPdfExtractor(),
			NewHTMLExtractor(),
			NewXlsxExtractor(),
			// Text last: mimetype reports many structured text formats as
			// descendants of text/plain.
			NewTextExtractor(),
		},
	}
}

// Extract sniffs the content type of data and runs the matching extractor.
// Returns apperr.ErrUnsupportedFormat when no extractor accepts the format
// and apperr.ErrExtractionFailed when extraction itself fails.
func (r *Registry) Extract(ctx context.Context, data []byte, fileName string) (*schema.Document, error) {
	mime := mimetype.Detect(data)

	doc := &schema.Document{
		ID:       uuid.New().String(),
		FileName: fileName,
	}

	for _, ex := range r.extractors {
		if !ex.Supports(mime) {
			continue
		}
		if err := ex.Extract(ctx, data, doc); err != nil {
			return nil, apperr.ExtractionFailed(fileName, err)
		}
		return doc, nil
	}

	return nil, fmt.Errorf("%w: %s (%s)", apperr.ErrUnsupportedFormat, fileName, mime.String())
}
