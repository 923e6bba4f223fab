package conversation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
)

// baseColumns are tried in order for the value a simulation adjusts.
var baseColumns = []string{"forecast_sum", "forecast_revenue", "total_revenue", "revenue"}

// simulateRow copies row and appends simulated_revenue and adjustment_percent.
// A row without a numeric base value gets a null simulated_revenue.
func simulateRow(row dataset.Row, signedPercent float64) dataset.Row {
	cols := row.Columns()
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i], _ = row.Get(c)
	}
	out := dataset.NewRow(cols, vals)

	var simulated any
	if base, ok := baseValue(row); ok {
		simulated = round2(base * (1 + signedPercent/100))
	}
	out.Set("simulated_revenue", simulated)
	out.Set("adjustment_percent", signedPercent)
	return out
}

// baseValue takes the first non-null base column; a missing one counts as 0.
func baseValue(row dataset.Row) (float64, bool) {
	for _, c := range baseColumns {
		if v, ok := row.Get(c); ok && v != nil {
			return toFloat(v)
		}
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parseNumber(n)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
