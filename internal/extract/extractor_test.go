package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docmind/internal/core/apperr"
)

func TestRegistryExtractsPlainText(t *testing.T) {
	r := NewRegistry()

	doc, err := r.Extract(context.Background(), []byte("hello   world\r\n\r\nsecond line"), "notes.txt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.FileName != "notes.txt" {
		t.Errorf("FileName = %q", doc.FileName)
	}
	if doc.ID == "" {
		t.Error("document has no ID")
	}
	if doc.Text != "hello world\nsecond line" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestRegistryExtractsHTML(t *testing.T) {
	r := NewRegistry()

	html := `<!DOCTYPE html><html><head><title>t</title>
		<script>var hidden = "never";</script>
		<style>body { color: red }</style></head>
		<body><h1>Heading</h1><p>Body text.</p></body></html>`

	doc, err := r.Extract(context.Background(), []byte(html), "page.html")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(doc.Text, "Heading") || !strings.Contains(doc.Text, "Body text.") {
		t.Errorf("visible text missing from %q", doc.Text)
	}
	if strings.Contains(doc.Text, "hidden") || strings.Contains(doc.Text, "color: red") {
		t.Errorf("script or style content leaked into %q", doc.Text)
	}
}

func TestRegistryRejectsUnsupportedFormat(t *testing.T) {
	r := NewRegistry()

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	_, err := r.Extract(context.Background(), png, "photo.png")
	if !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if !strings.Contains(err.Error(), "photo.png") {
		t.Errorf("error does not name the file: %v", err)
	}
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a\r\nb\rc", "a\nb\nc"},
		{"  spaced\t\tout  ", "spaced out"},
		{"keep\n\n\nlines", "keep\nlines"},
		{"nul\x00byte", "nulbyte"},
		{"bad�char", "badchar"},
	}
	for _, tc := range cases {
		if got := CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
