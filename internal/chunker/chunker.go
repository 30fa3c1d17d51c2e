package chunker

import (
	"fmt"

	"docmind/internal/core/schema"
)

// Chunker splits extracted document text into overlapping fixed-size
// passages. The overlap keeps context that spans a split point retrievable
// from either side; each chunk carries offsets and page provenance so a
// citation can always be reconstructed.
type Chunker struct {
	size    int // target chunk size in runes
	overlap int // runes shared between neighbouring chunks
	minLen  int // fragments shorter than this are dropped
}

// New creates a Chunker, clamping the parameters to sane bounds: size in
// [50, 4000], overlap at most half the size.
func New(size, overlap, minLen int) *Chunker {
	if size < 50 {
		size = 50
	}
	if size > 4000 {
		size = 4000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap > size/2 {
		overlap = size / 2
	}
	if minLen < 0 {
		minLen = 0
	}
	return &Chunker{size: size, overlap: overlap, minLen: minLen}
}

// Split cuts a document's text into chunks. Empty text yields no chunks
// and no error. Chunk ids are deterministic per document and ordinal so
// re-ingesting the same document upserts instead of duplicating.
func (c *Chunker) Split(doc *schema.Document) []schema.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	pageStarts := pageOffsets(doc)
	step := c.size - c.overlap

	var chunks []schema.Chunk
	ordinal := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		text := string(runes[start:end])
		if len([]rune(text)) >= c.minLen {
			chunks = append(chunks, schema.Chunk{
				ID:         fmt.Sprintf("%s:%d", doc.ID, ordinal),
				DocumentID: doc.ID,
				FileName:   doc.FileName,
				Ordinal:    ordinal,
				Text:       text,
				Start:      start,
				End:        end,
				Page:       pageAt(pageStarts, start),
			})
			ordinal++
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// pageOffsets returns the rune offset within doc.Text at which each page
// begins, assuming pages were joined with a single newline. Nil when the
// document has no page structure.
func pageOffsets(doc *schema.Document) []pageStart {
	if len(doc.Pages) == 0 {
		return nil
	}
	offsets := make([]pageStart, 0, len(doc.Pages))
	pos := 0
	for i, p := range doc.Pages {
		offsets = append(offsets, pageStart{offset: pos, number: p.Number})
		pos += len([]rune(p.Text))
		if i < len(doc.Pages)-1 {
			pos++ // the joining newline
		}
	}
	return offsets
}

type pageStart struct {
	offset int
	number int
}

// pageAt finds the page a rune offset falls on, or 0 for unpaginated text.
func pageAt(starts []pageStart, offset int) int {
	page := 0
	for _, s := range starts {
		if offset >= s.offset {
			page = s.number
		} else {
			break
		}
	}
	return page
}
