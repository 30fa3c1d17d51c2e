package pipeline

import (
	"context"
	"errors"
	"strings"

	"docmind/internal/core/apperr"
)

// fakeEmbedder maps texts onto fixed axes by keyword so tests control
// similarity exactly. Unknown text lands on a neutral diagonal.
type fakeEmbedder struct {
	axes  map[string][]float32
	calls int
}

func newFakeEmbedder(axes map[string][]float32) *fakeEmbedder {
	return &fakeEmbedder{axes: axes}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	for keyword, v := range f.axes {
		if strings.Contains(text, keyword) {
			return v, nil
		}
	}
	return []float32{0.5, 0.5, 0.5}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// failingEmbedder always reports the service as unavailable.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, apperr.ErrServiceUnavailable
}

func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, apperr.ErrServiceUnavailable
}

// scriptedLLM replays a fixed reply and records every prompt it saw.
type scriptedLLM struct {
	reply   string
	err     error
	prompts []string
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

var errLLMDown = errors.New("completion backend down")
