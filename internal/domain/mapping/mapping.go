// Package mapping holds the value types produced by column auto-mapping.
package mapping

import (
	"encoding/json"
	"math"
)

// Candidate is a target field a source column may be mapped to.
type Candidate struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Synonyms    []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
}

// ScoredCandidate pairs a candidate with its cosine similarity to a column.
type ScoredCandidate struct {
	Candidate Candidate `json:"candidate"`
	Score     float64   `json:"score"`
}

// ColumnMapping is the decision for one source column.
// CandidatesRanked is always the similarity ranking, even when BestMatch came from the lexical fallback.
type ColumnMapping struct {
	Column           string            `json:"column"`
	BestMatch        *Candidate        `json:"bestMatch"`
	Score            float64           `json:"score"`
	CandidatesRanked []ScoredCandidate `json:"candidatesRanked"`
}

// MarshalJSON writes NaN scores as null.
func (s ScoredCandidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Candidate Candidate `json:"candidate"`
		Score     *float64  `json:"score"`
	}{s.Candidate, finite(s.Score)})
}

// MarshalJSON writes a NaN score as null and never emits a null ranking.
func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	ranked := m.CandidatesRanked
	if ranked == nil {
		ranked = []ScoredCandidate{}
	}
	return json.Marshal(struct {
		Column           string            `json:"column"`
		BestMatch        *Candidate        `json:"bestMatch"`
		Score            *float64          `json:"score"`
		CandidatesRanked []ScoredCandidate `json:"candidatesRanked"`
	}{m.Column, m.BestMatch, finite(m.Score), ranked})
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
