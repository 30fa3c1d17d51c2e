package themes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"docmind/internal/config"
	"docmind/internal/core/schema"
	"docmind/internal/index/memory"
	"docmind/internal/session"
	"docmind/pkg/logger"
)

// jsonLLM replies with a structured description derived from the prompt's
// first excerpt keyword, so each cluster gets a distinguishable label.
type jsonLLM struct {
	err   error
	calls int
}

func (j *jsonLLM) Complete(ctx context.Context, prompt string) (string, error) {
	j.calls++
	if j.err != nil {
		return "", j.err
	}
	name := "General Topic"
	switch {
	case strings.Contains(prompt, "solar"):
		name = "Solar Energy"
	case strings.Contains(prompt, "tax"):
		name = "Tax Policy"
	}
	return fmt.Sprintf(`Here you go: {"name": %q, "summary": "A short summary."}`, name), nil
}

func newTestEngine(svc *jsonLLM, cfg config.ThemesConfig) (*Engine, *session.Manager) {
	sessions := session.NewManager(
		memory.NewProvider(),
		session.NewMemoryHistory(),
		config.SessionsConfig{HistoryCap: 20, IdleTTL: "0s"},
		logger.New("themes-test"),
	)
	return NewEngine(sessions, svc, cfg, logger.New("themes-test")), sessions
}

// seedTwoGroups loads the session with two well-separated vector groups of
// n records each.
func seedTwoGroups(t *testing.T, sessions *session.Manager, sessionID string, n int) {
	t.Helper()
	ctx := context.Background()

	idx, err := sessions.Index(ctx, sessionID)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	var records []schema.EmbeddingRecord
	for i := 0; i < n; i++ {
		jitter := float32(i) * 0.001
		records = append(records,
			schema.EmbeddingRecord{
				ChunkID: fmt.Sprintf("solar:%d", i),
				Text:    "passage about solar panels",
				Vector:  []float32{1, jitter, 0},
			},
			schema.EmbeddingRecord{
				ChunkID: fmt.Sprintf("tax:%d", i),
				Text:    "passage about tax law",
				Vector:  []float32{0, 1, jitter},
			},
		)
	}
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func collect(t *testing.T, a *Analysis) []schema.Theme {
	t.Helper()
	var themes []schema.Theme
	for theme := range a.Themes {
		themes = append(themes, theme)
	}
	return themes
}

func TestAnalyzeDiscoversSeparableThemes(t *testing.T) {
	llm := &jsonLLM{}
	engine, sessions := newTestEngine(llm, config.ThemesConfig{
		MinChunks:           4,
		SimilarityThreshold: 0.8,
		Representatives:     8,
		MinClusterSize:      2,
	})
	seedTwoGroups(t, sessions, "s1", 20)

	analysis, err := engine.Analyze(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.InsufficientData {
		t.Fatal("40 chunks flagged as insufficient data")
	}
	if analysis.ChunkCount != 40 {
		t.Errorf("ChunkCount = %d, want 40", analysis.ChunkCount)
	}

	themes := collect(t, analysis)
	if len(themes) < 2 {
		t.Fatalf("expected at least 2 themes, got %d", len(themes))
	}

	labels := make(map[string]bool)
	seen := make(map[string]string)
	covered := 0
	for _, theme := range themes {
		labels[theme.Label] = true
		if theme.Summary == "" {
			t.Errorf("theme %q has no summary", theme.Label)
		}
		for _, chunkID := range theme.Evidence {
			if prior, dup := seen[chunkID]; dup {
				t.Errorf("chunk %s appears in themes %q and %q", chunkID, prior, theme.Label)
			}
			seen[chunkID] = theme.Label
			covered++
		}
	}
	if covered != 40 {
		t.Errorf("themes cover %d chunks, want all 40", covered)
	}
	if !labels["Solar Energy"] || !labels["Tax Policy"] {
		t.Errorf("expected both group labels, got %v", labels)
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	llm := &jsonLLM{}
	engine, sessions := newTestEngine(llm, config.ThemesConfig{
		MinChunks:           4,
		SimilarityThreshold: 0.8,
		Representatives:     8,
		MinClusterSize:      2,
	})

	ctx := context.Background()
	idx, err := sessions.Index(ctx, "tiny")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	err = idx.Upsert(ctx, []schema.EmbeddingRecord{
		{ChunkID: "c1", Text: "one", Vector: []float32{1, 0}},
		{ChunkID: "c2", Text: "two", Vector: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	analysis, err := engine.Analyze(ctx, "tiny")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !analysis.InsufficientData {
		t.Error("2 chunks not flagged as insufficient data")
	}
	if themes := collect(t, analysis); len(themes) != 0 {
		t.Errorf("expected no themes, got %d", len(themes))
	}
	if llm.calls != 0 {
		t.Errorf("completion service called %d times for insufficient data", llm.calls)
	}
}

func TestAnalyzeLabelingFailureYieldsErrorTheme(t *testing.T) {
	llm := &jsonLLM{err: errors.New("model down")}
	engine, sessions := newTestEngine(llm, config.ThemesConfig{
		MinChunks:           4,
		SimilarityThreshold: 0.8,
		Representatives:     8,
		MinClusterSize:      2,
	})
	seedTwoGroups(t, sessions, "s1", 5)

	analysis, err := engine.Analyze(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	themes := collect(t, analysis)
	if len(themes) == 0 {
		t.Fatal("labeling failure should still emit themes")
	}
	for _, theme := range themes {
		if theme.Label != errorLabel {
			t.Errorf("theme label = %q, want %q", theme.Label, errorLabel)
		}
		if len(theme.Evidence) == 0 {
			t.Error("error theme lost its evidence")
		}
	}
}

func TestAnalyzeStopsOnCancellation(t *testing.T) {
	llm := &jsonLLM{}
	engine, sessions := newTestEngine(llm, config.ThemesConfig{
		MinChunks:           4,
		SimilarityThreshold: 0.8,
		Representatives:     8,
		MinClusterSize:      2,
	})
	seedTwoGroups(t, sessions, "s1", 20)

	ctx, cancel := context.WithCancel(context.Background())
	analysis, err := engine.Analyze(ctx, "s1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// Take one theme, then cancel. The stream must close rather than
	// block on further sends.
	first, ok := <-analysis.Themes
	if !ok {
		t.Fatal("stream closed before the first theme")
	}
	if first.Label == "" {
		t.Error("first theme has no label")
	}
	cancel()

	for range analysis.Themes {
	}
}

func TestParseDescriptionTolerantOfProse(t *testing.T) {
	desc, err := parseDescription("Sure! ```json\n{\"name\": \"Climate\", \"summary\": \"About climate.\"}\n```")
	if err != nil {
		t.Fatalf("parseDescription: %v", err)
	}
	if desc.Name != "Climate" || desc.Summary != "About climate." {
		t.Errorf("parsed %+v", desc)
	}

	if _, err := parseDescription("no json at all"); err == nil {
		t.Error("expected error for reply without JSON")
	}
	if _, err := parseDescription(`{"summary": "missing name"}`); err == nil {
		t.Error("expected error for description without a name")
	}
}
