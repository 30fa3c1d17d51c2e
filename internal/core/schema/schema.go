package schema

import "time"

// Document is one ingested file after text extraction. It is owned by
// exactly one session and never shared across sessions.
type Document struct {
	// ID is the unique identifier for the document within its session.
	ID string

	// FileName is the original name of the uploaded file.
	FileName string

	// Text is the cleaned plain text produced by the extractor.
	Text string

	// Pages holds per-page text when the source format is paginated
	// (e.g. PDF). Empty for unpaginated formats; Text is then the whole body.
	Pages []Page
}

// Page is one page of a paginated source document.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the cleaned text of the page.
	Text string
}

// Chunk is a contiguous span of a document's text, the atomic retrieval
// unit. Chunks are immutable once created.
type Chunk struct {
	// ID is deterministic per document and position so that re-ingesting
	// the same document upserts rather than duplicates.
	ID string

	// DocumentID is a back-reference to the owning document.
	DocumentID string

	// FileName is carried along for citation rendering.
	FileName string

	// Ordinal is the 0-based position of the chunk within its document.
	Ordinal int

	// Text is the raw chunk text, including the overlap with its neighbours.
	Text string

	// Start and End are rune offsets of the chunk within the source text.
	Start int
	End   int

	// Page is the 1-based page the chunk starts on, or 0 when the source
	// format has no pages.
	Page int
}

// EmbeddingRecord pairs a chunk with its dense vector as stored in the
// session index. Every chunk has exactly one record and all vectors in a
// collection share one dimensionality.
type EmbeddingRecord struct {
	ChunkID    string
	DocumentID string
	FileName   string
	Ordinal    int
	Page       int
	Text       string
	Vector     []float32
}

// ScoredRecord is an EmbeddingRecord annotated with a similarity score
// from a search, higher meaning more similar.
type ScoredRecord struct {
	EmbeddingRecord
	Score float32
}

// Role identifies the author of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange in a session's conversational history.
type Turn struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
	At        time.Time  `json:"at"`
}

// Citation points an answer back to a supporting chunk.
type Citation struct {
	// Marker is the reference marker used in the prompt and answer, e.g. "C1".
	Marker string `json:"marker"`

	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	Page       int    `json:"page,omitempty"`
}

// Theme is a named, summarized cluster of passages discovered across a
// session's documents. Themes are recomputed fresh on each analysis.
type Theme struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Summary string `json:"summary"`

	// Evidence lists the supporting chunk ids, ordered by closeness to the
	// cluster centroid.
	Evidence []string `json:"evidence"`

	// Miscellaneous marks the catch-all theme that absorbs outlier chunks
	// too far from every cluster.
	Miscellaneous bool `json:"miscellaneous,omitempty"`
}

// Answer is the result of grounded synthesis for one query.
type Answer struct {
	Text      string         `json:"answer"`
	Citations []Citation     `json:"citations"`
	Chunks    []ScoredRecord `json:"supporting_chunks"`

	// Degraded is set when the completion service failed after retries and
	// the answer text is a fixed apology; Chunks are still populated for
	// transparency.
	Degraded bool `json:"degraded,omitempty"`
}
