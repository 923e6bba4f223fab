package mapping

import "time"

// RankedID is a candidate reference inside a persisted ranking.
type RankedID struct {
	ID    string   `json:"id"`
	Score *float64 `json:"score"`
}

// Record is the persisted decision for one source column of a dataset.
// Nil scores stand for NaN similarities.
type Record struct {
	SourceColumn     string     `json:"source_column"`
	TargetField      *string    `json:"target_field"`
	Score            *float64   `json:"score"`
	CandidatesRanked []RankedID `json:"candidates_ranked"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewRecord flattens a column mapping for storage.
func NewRecord(m ColumnMapping, at time.Time) Record {
	r := Record{
		SourceColumn:     m.Column,
		Score:            finite(m.Score),
		CandidatesRanked: make([]RankedID, len(m.CandidatesRanked)),
		UpdatedAt:        at.UTC(),
	}
	if m.BestMatch != nil {
		id := m.BestMatch.ID
		r.TargetField = &id
	}
	for i, sc := range m.CandidatesRanked {
		r.CandidatesRanked[i] = RankedID{ID: sc.Candidate.ID, Score: finite(sc.Score)}
	}
	return r
}
