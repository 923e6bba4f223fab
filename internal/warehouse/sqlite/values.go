package sqlite

import (
	"encoding/json"
	"strconv"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
)

// columnType infers a column affinity from its non-null values.
func columnType(column string, rows []dataset.Row) string {
	kind := "INTEGER"
	seen := false
	for _, r := range rows {
		v, ok := r.Get(column)
		if !ok || v == nil || v == "" {
			continue
		}
		seen = true
		switch valueKind(v) {
		case "TEXT":
			return "TEXT"
		case "REAL":
			kind = "REAL"
		}
	}
	if !seen {
		return "TEXT"
	}
	return kind
}

func valueKind(v any) string {
	switch t := v.(type) {
	case bool, int, int32, int64:
		return "INTEGER"
	case float32, float64:
		return "REAL"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return "INTEGER"
		}
		if _, err := t.Float64(); err == nil {
			return "REAL"
		}
		return "TEXT"
	case string:
		if _, err := strconv.ParseInt(t, 10, 64); err == nil {
			return "INTEGER"
		}
		if _, err := strconv.ParseFloat(t, 64); err == nil {
			return "REAL"
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}

// sqliteValue converts a dataset value for binding; empty strings become NULL
// so that numeric columns loaded from CSV aggregate cleanly.
func sqliteValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(t.String(), 64); err == nil {
			return f
		}
		return t.String()
	default:
		return t
	}
}
