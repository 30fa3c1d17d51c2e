package extract

import (
	"context"

	"github.com/gabriel-vasile/mimetype"

	"docmind/internal/core/schema"
)

// TextExtractor handles plain text and its descendants (markdown, csv, ...).
type TextExtractor struct{}

// NewTextExtractor creates a new TextExtractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Supports(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func (e *TextExtractor) Extract(ctx context.Context, data []byte, doc *schema.Document) error {
	doc.Text = CleanText(string(data))
	return nil
}

var _ Extractor = (*TextExtractor)(nil)
