package extract

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"

	"docmind/internal/core/schema"
)

// HTMLExtractor strips markup from HTML files and keeps the human-readable
// text.
type HTMLExtractor struct{}

// NewHTMLExtractor creates a new HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

func (e *HTMLExtractor) Supports(mime *mimetype.MIME) bool {
	return mime.Is("text/html")
}

func (e *HTMLExtractor) Extract(ctx context.Context, data []byte, doc *schema.Document) error {
	text, err := stripTags(bytes.NewReader(data))
	if err != nil {
		return err
	}
	doc.Text = CleanText(text)
	return nil
}

// stripTags tokenizes an HTML document and extracts all text content,
// skipping script and style bodies.
func stripTags(body io.Reader) (string, error) {
	z := html.NewTokenizer(body)
	var sb strings.Builder
	var inScript, inStyle bool

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return sb.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken, html.EndTagToken:
			tn, _ := z.TagName()
			switch string(tn) {
			case "script":
				inScript = tt == html.StartTagToken
			case "style":
				inStyle = tt == html.StartTagToken
			}
		case html.TextToken:
			if !inScript && !inStyle {
				text := strings.TrimSpace(string(z.Text()))
				if len(text) > 0 {
					sb.WriteString(text)
					sb.WriteString(" ")
				}
			}
		}
	}
}

var _ Extractor = (*HTMLExtractor)(nil)
