package automap

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	"github.com/kailas-cloud/colmap/internal/domain/mapping"
)

func TestBuildColumnContext(t *testing.T) {
	rows := []dataset.Row{
		row(t, "price", 1.5),
		row(t, "price", nil),
		row(t, "other", "x"),
		row(t, "price", json.Number("20")),
		row(t, "price", true),
		row(t, "price", int64(7)),
		row(t, "price", "cheap"),
		row(t, "price", 99),
	}

	got := BuildColumnContext("price", rows, DefaultSampleSize)
	want := "Column: price\nSample Values: 1.5, 20, true, 7, cheap"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildColumnContext_NoValues(t *testing.T) {
	got := BuildColumnContext("empty", []dataset.Row{row(t, "empty", nil)}, DefaultSampleSize)
	if got != "Column: empty\nSample Values: " {
		t.Errorf("got %q", got)
	}
}

func TestBuildCandidateContext(t *testing.T) {
	tests := []struct {
		name string
		c    mapping.Candidate
		want string
	}{
		{
			name: "with synonyms",
			c:    candidate("revenue", "Total revenue", "sales", "amount"),
			want: "Field: revenue\nDescription: Total revenue\nSynonyms: sales, amount",
		},
		{
			name: "without synonyms",
			c:    candidate("quantity", "Units sold"),
			want: "Field: quantity\nDescription: Units sold",
		},
		{
			name: "empty synonyms slice",
			c:    mapping.Candidate{ID: "region", Description: "Sales region", Synonyms: []string{}},
			want: "Field: region\nDescription: Sales region",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildCandidateContext(tt.c); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := map[string]string{
		"Sale_Date":     "saledate",
		"sale date":     "saledate",
		"  SALE\tDATE ": "saledate",
		"saleDate":      "saledate",
		"sale-date":     "sale-date",
		"":              "",
	}
	for in, want := range tests {
		if got := normalizeIdentifier(in); got != want {
			t.Errorf("normalizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-12 {
		t.Errorf("identical vectors: got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{-1, 0}); math.Abs(got+1) > 1e-12 {
		t.Errorf("opposite vectors: got %f", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); !math.IsNaN(got) {
		t.Errorf("zero vector: expected NaN, got %f", got)
	}
	if got := cosineSimilarity([]float32{1}, []float32{1, 0}); !math.IsNaN(got) {
		t.Errorf("length mismatch: expected NaN, got %f", got)
	}
}

func TestRank_StableTies(t *testing.T) {
	cands := []mapping.Candidate{candidate("a", ""), candidate("b", ""), candidate("c", "")}
	vecs := [][]float32{{1, 0}, {0, 1}, {1, 0}}

	ranked := rank([]float32{1, 0}, vecs, cands)
	got := []string{ranked[0].Candidate.ID, ranked[1].Candidate.ID, ranked[2].Candidate.ID}
	want := []string{"a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}
}

func TestResolve_EmptyRanking(t *testing.T) {
	best, score, fallback := resolve("x", nil)
	if best != nil || score != 0 || fallback {
		t.Errorf("got %v, %f, %v", best, score, fallback)
	}
}

func TestResolve_FirstLexicalMatchInRankOrder(t *testing.T) {
	ranked := []mapping.ScoredCandidate{
		{Candidate: candidate("top", ""), Score: 0.5},
		{Candidate: candidate("first", "", "qty"), Score: 0.4},
		{Candidate: candidate("qty", ""), Score: 0.3},
	}
	best, score, fallback := resolve("QTY", ranked)
	if !fallback || best.ID != "first" || score != ConfidenceThreshold {
		t.Errorf("got %v, %f, %v", best, score, fallback)
	}
}

func TestColumnMapping_JSONWritesNaNAsNull(t *testing.T) {
	m := mapping.ColumnMapping{
		Column: "x",
		Score:  math.NaN(),
		CandidatesRanked: []mapping.ScoredCandidate{
			{Candidate: candidate("a", "A"), Score: math.NaN()},
		},
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"column":"x","bestMatch":null,"score":null,"candidatesRanked":[{"candidate":{"id":"a","description":"A"},"score":null}]}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}
