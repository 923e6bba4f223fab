package automap

import (
	"math"
	"sort"

	"github.com/kailas-cloud/colmap/internal/domain/mapping"
)

// cosineSimilarity returns dot(a,b)/(|a|·|b|).
// A zero norm or a length mismatch yields NaN.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rank scores every candidate against the column vector and sorts descending.
// Equal scores keep candidate input order; NaN scores go last.
func rank(column []float32, candidateVecs [][]float32, candidates []mapping.Candidate) []mapping.ScoredCandidate {
	ranked := make([]mapping.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = mapping.ScoredCandidate{
			Candidate: c,
			Score:     cosineSimilarity(column, candidateVecs[i]),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scoreBefore(ranked[i].Score, ranked[j].Score)
	})
	return ranked
}

// scoreBefore is a strict weak ordering: higher first, NaN after everything.
func scoreBefore(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}
