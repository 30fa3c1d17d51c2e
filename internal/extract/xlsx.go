package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"docmind/internal/core/schema"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XlsxExtractor renders each sheet of an Excel workbook as a Markdown
// table so tabular context survives chunking.
type XlsxExtractor struct{}

// NewXlsxExtractor creates a new XlsxExtractor.
func NewXlsxExtractor() *XlsxExtractor {
	return &XlsxExtractor{}
}

func (e *XlsxExtractor) Supports(mime *mimetype.MIME) bool {
	return mime.Is(xlsxMIME)
}

func (e *XlsxExtractor) Extract(ctx context.Context, data []byte, doc *schema.Document) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer f.Close()

	var full strings.Builder
	for i, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil || len(rows) == 0 {
			continue
		}

		var sheet strings.Builder
		sheet.WriteString("# " + sheetName + "\n")
		sheet.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
		sheet.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
		for _, row := range rows[1:] {
			sheet.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}

		text := CleanText(sheet.String())
		if text == "" {
			continue
		}

		doc.Pages = append(doc.Pages, schema.Page{Number: i + 1, Text: text})
		if full.Len() > 0 {
			full.WriteString("\n")
		}
		full.WriteString(text)
	}

	doc.Text = full.String()
	return nil
}

var _ Extractor = (*XlsxExtractor)(nil)
