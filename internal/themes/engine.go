package themes

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"docmind/internal/config"
	"docmind/internal/core/schema"
	"docmind/internal/llm"
	"docmind/internal/session"
	"docmind/internal/vec"
	"docmind/pkg/logger"
)

// fallback values when the completion service cannot produce a usable
// structured response for a cluster.
const (
	errorLabel   = "Analysis Error"
	errorSummary = "The language model failed to generate a summary for this theme."

	miscLabel = "Miscellaneous"
)

// Analysis is the result of one theme-discovery request. Themes stream on
// the channel as each cluster is labeled; the channel closes when analysis
// finishes or the context is cancelled.
type Analysis struct {
	Themes <-chan schema.Theme

	// InsufficientData is set when the session holds too few chunks to
	// cluster. The channel is already closed in that case.
	InsufficientData bool

	// ChunkCount is the number of records the analysis ran over.
	ChunkCount int
}

// Engine discovers themes across a session's corpus: it clusters all
// passage vectors, then names and summarizes each cluster through the
// completion service. It only ever reads from the index, so cancelling an
// analysis leaves no partial state behind.
type Engine struct {
	log      *logger.Logger
	sessions *session.Manager
	llm      llm.CompletionService
	cfg      config.ThemesConfig
}

// NewEngine creates a theme Engine.
func NewEngine(sessions *session.Manager, svc llm.CompletionService, cfg config.ThemesConfig, log *logger.Logger) *Engine {
	return &Engine{log: log, sessions: sessions, llm: svc, cfg: cfg}
}

// Analyze clusters the session's full corpus and streams one Theme per
// cluster as its label and summary complete. Emission order follows
// completion, not cluster identity. Fewer chunks than the minimum
// threshold yields zero themes with the InsufficientData signal, not an
// error.
func (e *Engine) Analyze(ctx context.Context, sessionID string) (*Analysis, error) {
	log := e.log.WithSession(sessionID)

	idx, err := e.sessions.Index(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	records, err := idx.AllRecords(ctx)
	if err != nil {
		return nil, err
	}

	closed := make(chan schema.Theme)
	close(closed)
	if len(records) < e.cfg.MinChunks {
		log.Info(fmt.Sprintf("insufficient data for theme analysis: %d chunks", len(records)))
		return &Analysis{Themes: closed, InsufficientData: true, ChunkCount: len(records)}, nil
	}

	vectors := make([][]float32, len(records))
	for i, r := range records {
		vectors[i] = r.Vector
	}

	clusters := agglomerate(vectors, e.cfg.SimilarityThreshold)
	themed, outliers := partition(clusters, e.cfg.MinClusterSize)
	if len(themed) == 0 {
		log.Info("clustering produced no viable clusters")
		return &Analysis{Themes: closed, InsufficientData: true, ChunkCount: len(records)}, nil
	}

	log.Info(fmt.Sprintf("clustered %d chunks into %d themes (%d outliers)", len(records), len(themed), len(outliers)))

	out := make(chan schema.Theme)
	go e.produce(ctx, out, records, vectors, themed, outliers)

	return &Analysis{Themes: out, ChunkCount: len(records)}, nil
}

// produce labels each cluster and pushes completed themes until done or
// cancelled.
func (e *Engine) produce(ctx context.Context, out chan<- schema.Theme, records []schema.EmbeddingRecord, vectors [][]float32, themed []*cluster, outliers []int) {
	defer close(out)

	for _, c := range themed {
		theme := e.describe(ctx, records, vectors, c, false)
		select {
		case out <- theme:
		case <-ctx.Done():
			return
		}
	}

	if len(outliers) > 0 {
		misc := &cluster{members: outliers}
		vecs := make([][]float32, 0, len(outliers))
		for _, m := range outliers {
			vecs = append(vecs, vectors[m])
		}
		misc.centroid = vec.Centroid(vecs)

		theme := e.describe(ctx, records, vectors, misc, true)
		select {
		case out <- theme:
		case <-ctx.Done():
		}
	}
}

// describe picks the cluster's representative chunks and asks the
// completion service for a label and summary grounded in them.
func (e *Engine) describe(ctx context.Context, records []schema.EmbeddingRecord, vectors [][]float32, c *cluster, miscellaneous bool) schema.Theme {
	members := byCentroidDistance(c, vectors)

	evidence := make([]string, len(members))
	for i, m := range members {
		evidence[i] = records[m].ChunkID
	}

	theme := schema.Theme{
		ID:            uuid.New().String(),
		Evidence:      evidence,
		Miscellaneous: miscellaneous,
	}

	reps := members
	if len(reps) > e.cfg.Representatives {
		reps = reps[:e.cfg.Representatives]
	}
	var excerpts []string
	for _, m := range reps {
		excerpts = append(excerpts, records[m].Text)
	}

	label, summary, err := e.label(ctx, excerpts, miscellaneous)
	if err != nil {
		e.log.Warn(fmt.Sprintf("theme labeling failed: %v", err))
		theme.Label = errorLabel
		theme.Summary = errorSummary
		return theme
	}

	theme.Label = label
	theme.Summary = summary
	return theme
}

// byCentroidDistance orders a cluster's members by descending similarity
// to the centroid, so representatives and evidence lead with the most
// central passages.
func byCentroidDistance(c *cluster, vectors [][]float32) []int {
	members := append([]int{}, c.members...)
	sort.SliceStable(members, func(i, j int) bool {
		return vec.Cosine(vectors[members[i]], c.centroid) > vec.Cosine(vectors[members[j]], c.centroid)
	})
	return members
}

// themeDescription is the structured reply expected from the completion
// service.
type themeDescription struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// label asks the completion service for a short name and summary grounded
// only in the representative excerpts.
func (e *Engine) label(ctx context.Context, excerpts []string, miscellaneous bool) (string, string, error) {
	var sb strings.Builder
	sb.WriteString("Analyze the following text excerpts and identify their common theme. ")
	if miscellaneous {
		sb.WriteString("These excerpts did not fit any other theme; describe what this residual " +
			"material covers. ")
	}
	sb.WriteString("Reply with a JSON object of the form " +
		`{"name": "<3-5 word title>", "summary": "<2-3 sentence summary>"}` +
		" and nothing else.\n\nExcerpts:\n---\n")
	for _, ex := range excerpts {
		sb.WriteString(ex)
		sb.WriteString("\n---\n")
	}

	reply, err := e.llm.Complete(ctx, sb.String())
	if err != nil {
		return "", "", err
	}

	desc, err := parseDescription(reply)
	if err != nil {
		return "", "", err
	}
	if miscellaneous {
		return miscLabel + ": " + desc.Name, desc.Summary, nil
	}
	return desc.Name, desc.Summary, nil
}

// parseDescription extracts the JSON object from a model reply that may
// carry surrounding prose or code fences.
func parseDescription(reply string) (*themeDescription, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var desc themeDescription
	if err := json.Unmarshal([]byte(reply[start:end+1]), &desc); err != nil {
		return nil, fmt.Errorf("malformed theme description: %w", err)
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("theme description missing name")
	}
	return &desc, nil
}
