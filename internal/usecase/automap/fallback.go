package automap

import (
	"math"
	"strings"
	"unicode"

	"github.com/kailas-cloud/colmap/internal/domain/mapping"
)

// ConfidenceThreshold is the top similarity below which the lexical fallback is tried.
const ConfidenceThreshold = 0.6

// resolve picks the best match for a column from its similarity ranking.
//
// When the top score is under ConfidenceThreshold, the ranking is scanned top
// to bottom for a candidate whose normalized ID or synonym equals the
// normalized column name. A hit replaces the best match and reports
// max(top score, threshold). A NaN top score is not under the threshold and
// stands as is. The second return value tells whether the fallback fired.
func resolve(column string, ranked []mapping.ScoredCandidate) (*mapping.Candidate, float64, bool) {
	if len(ranked) == 0 {
		return nil, 0, false
	}

	top := ranked[0]
	if !(top.Score < ConfidenceThreshold) {
		return candidatePtr(top.Candidate), top.Score, false
	}

	want := normalizeIdentifier(column)
	for _, sc := range ranked {
		if !lexicalMatch(want, sc.Candidate) {
			continue
		}
		return candidatePtr(sc.Candidate), math.Max(top.Score, ConfidenceThreshold), true
	}

	return candidatePtr(top.Candidate), top.Score, false
}

func lexicalMatch(normalizedColumn string, c mapping.Candidate) bool {
	if normalizeIdentifier(c.ID) == normalizedColumn {
		return true
	}
	for _, s := range c.Synonyms {
		if normalizeIdentifier(s) == normalizedColumn {
			return true
		}
	}
	return false
}

// normalizeIdentifier lowercases and drops underscores and whitespace.
func normalizeIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

func candidatePtr(c mapping.Candidate) *mapping.Candidate {
	return &c
}
