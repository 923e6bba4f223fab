package automap

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	"github.com/kailas-cloud/colmap/internal/domain/mapping"
)

// --- Mocks ---

// fakeEmbedder returns the vector registered for the first line of each text
// ("Column: x" or "Field: y"). Unknown texts get the zero vector.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	dim     int
	tokens  int
	err     error
	short   bool // drop the last vector of every batch
	batches [][]string
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{vectors: make(map[string][]float32), dim: dim}
}

func (f *fakeEmbedder) column(name string, vec ...float32) *fakeEmbedder {
	f.vectors["Column: "+name] = vec
	return f
}

func (f *fakeEmbedder) field(id string, vec ...float32) *fakeEmbedder {
	f.vectors["Field: "+id] = vec
	return f
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}

	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		head, _, _ := strings.Cut(t, "\n")
		vec, ok := f.vectors[head]
		if !ok {
			vec = make([]float32, f.dim)
		}
		out = append(out, vec)
	}
	if f.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: f.tokens, PromptTokens: f.tokens}, nil
}

func (f *fakeEmbedder) calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

// recordingEmbedders remembers which model was requested.
type recordingEmbedders struct {
	embedder domain.Embedder
	models   []string
	err      error
}

func (r *recordingEmbedders) ForModel(model string) (domain.Embedder, error) {
	r.models = append(r.models, model)
	if r.err != nil {
		return nil, r.err
	}
	return r.embedder, nil
}

// --- Helpers ---

func row(t *testing.T, kv ...any) dataset.Row {
	t.Helper()
	if len(kv)%2 != 0 {
		t.Fatalf("row: odd number of arguments")
	}
	var r dataset.Row
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			t.Fatalf("row: column name must be a string, got %T", kv[i])
		}
		r.Set(name, kv[i+1])
	}
	return r
}

func candidate(id, description string, synonyms ...string) mapping.Candidate {
	return mapping.Candidate{ID: id, Description: description, Synonyms: synonyms}
}

func rankedIDs(m mapping.ColumnMapping) []string {
	ids := make([]string, len(m.CandidatesRanked))
	for i, sc := range m.CandidatesRanked {
		ids[i] = sc.Candidate.ID
	}
	return ids
}
