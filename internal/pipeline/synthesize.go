package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"docmind/internal/core/schema"
	"docmind/internal/llm"
	"docmind/pkg/logger"
)

// InsufficientContextAnswer is the fixed reply when no relevant chunks
// exist. It is returned without a completion call so the model never
// answers ungrounded.
const InsufficientContextAnswer = "I couldn't find anything relevant in your documents. " +
	"Try uploading more documents or rephrasing the question."

// DegradedAnswer is the fixed reply when the completion service failed
// after retries. The retrieved chunks still accompany it for transparency.
const DegradedAnswer = "Sorry, an error occurred while generating the answer. " +
	"The passages below were retrieved for your question."

var citationMarker = regexp.MustCompile(`\[C(\d+)\]`)

// Synthesizer builds a grounded prompt from the top-ranked chunks and the
// recent conversational history, delegates to the completion service and
// attaches citations to the answer.
type Synthesizer struct {
	log           *logger.Logger
	llm           llm.CompletionService
	contextBudget int
}

// NewSynthesizer creates a Synthesizer. contextBudget caps the characters
// of chunk context placed in the prompt.
func NewSynthesizer(svc llm.CompletionService, contextBudget int, log *logger.Logger) *Synthesizer {
	if contextBudget <= 0 {
		contextBudget = 7000
	}
	return &Synthesizer{log: log, llm: svc, contextBudget: contextBudget}
}

// Synthesize produces a cited answer for the query. Empty candidates
// short-circuit to the fixed insufficient-context answer; a completion
// failure degrades to a fixed apology with the chunks still attached.
// Neither case is an error.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, history []schema.Turn, chunks []schema.ScoredRecord) (*schema.Answer, error) {
	if len(chunks) == 0 {
		return &schema.Answer{Text: InsufficientContextAnswer}, nil
	}

	prompt := s.buildPrompt(query, history, chunks)

	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		s.log.Warn(fmt.Sprintf("completion failed, returning degraded answer: %v", err))
		return &schema.Answer{
			Text:      DegradedAnswer,
			Citations: citeAll(chunks),
			Chunks:    chunks,
			Degraded:  true,
		}, nil
	}

	return &schema.Answer{
		Text:      text,
		Citations: parseCitations(text, chunks),
		Chunks:    chunks,
	}, nil
}

// buildPrompt assembles the grounded prompt: instructions, recent history
// for follow-up coherence, the chunk context with stable [C#] markers, and
// the question.
func (s *Synthesizer) buildPrompt(query string, history []schema.Turn, chunks []schema.ScoredRecord) string {
	var sb strings.Builder

	sb.WriteString("You are an expert research assistant. Answer the user's question based ONLY " +
		"on the provided context passages. Cite every claim with the marker of its supporting " +
		"passage, e.g. [C1]. If the context does not contain the answer, say so.\n\n")

	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			sb.WriteString(string(turn.Role))
			sb.WriteString(": ")
			sb.WriteString(turn.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Context:\n")
	budget := s.contextBudget
	for i, c := range chunks {
		entry := fmt.Sprintf("[C%d] From '%s':\n%s\n---\n", i+1, c.FileName, c.Text)
		if len(entry) > budget {
			break
		}
		sb.WriteString(entry)
		budget -= len(entry)
	}

	sb.WriteString("\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer with citations:")

	return sb.String()
}

// parseCitations extracts the [C#] markers the model actually used. When
// the answer carries no recognizable markers, every supplied chunk is
// cited instead of guessing.
func parseCitations(answer string, chunks []schema.ScoredRecord) []schema.Citation {
	matches := citationMarker.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return citeAll(chunks)
	}

	seen := make(map[int]bool)
	var citations []schema.Citation
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(chunks) || seen[n] {
			continue
		}
		seen[n] = true
		citations = append(citations, cite(n, chunks[n-1]))
	}

	if len(citations) == 0 {
		return citeAll(chunks)
	}
	return citations
}

func citeAll(chunks []schema.ScoredRecord) []schema.Citation {
	citations := make([]schema.Citation, len(chunks))
	for i, c := range chunks {
		citations[i] = cite(i+1, c)
	}
	return citations
}

func cite(marker int, c schema.ScoredRecord) schema.Citation {
	return schema.Citation{
		Marker:     fmt.Sprintf("C%d", marker),
		ChunkID:    c.ChunkID,
		DocumentID: c.DocumentID,
		FileName:   c.FileName,
		Page:       c.Page,
	}
}
