package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"docmind/internal/core/schema"
)

// PdfExtractor reads native text from PDF files page by page. Scanned PDFs
// without a text layer come back empty; OCR is a collaborator outside this
// module.
type PdfExtractor struct{}

// NewPdfExtractor creates a new PdfExtractor.
func NewPdfExtractor() *PdfExtractor {
	return &PdfExtractor{}
}

func (e *PdfExtractor) Supports(mime *mimetype.MIME) bool {
	return mime.Is("application/pdf")
}

func (e *PdfExtractor) Extract(ctx context.Context, data []byte, doc *schema.Document) error {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open pdf: %w", err)
	}

	var full strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page does not abort the document.
			continue
		}

		cleaned := CleanText(text)
		if cleaned == "" {
			continue
		}

		doc.Pages = append(doc.Pages, schema.Page{Number: i, Text: cleaned})
		if full.Len() > 0 {
			full.WriteString("\n")
		}
		full.WriteString(cleaned)
	}

	doc.Text = full.String()
	return nil
}

var _ Extractor = (*PdfExtractor)(nil)
