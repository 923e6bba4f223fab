package automap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	"github.com/kailas-cloud/colmap/internal/domain/mapping"
)

// DefaultSampleSize is how many non-null values describe a column.
const DefaultSampleSize = 5

// BuildColumnContext describes a column by its name and up to sampleSize
// non-null values taken in row order.
func BuildColumnContext(column string, rows []dataset.Row, sampleSize int) string {
	values := make([]string, 0, sampleSize)
	for _, row := range rows {
		if len(values) >= sampleSize {
			break
		}
		v, ok := row.Get(column)
		if !ok || v == nil {
			continue
		}
		values = append(values, stringify(v))
	}
	return "Column: " + column + "\nSample Values: " + strings.Join(values, ", ")
}

// BuildCandidateContext describes a target field. The synonyms line is
// omitted entirely when there are none.
func BuildCandidateContext(c mapping.Candidate) string {
	var b strings.Builder
	b.WriteString("Field: ")
	b.WriteString(c.ID)
	b.WriteString("\nDescription: ")
	b.WriteString(c.Description)
	if len(c.Synonyms) > 0 {
		b.WriteString("\nSynonyms: ")
		b.WriteString(strings.Join(c.Synonyms, ", "))
	}
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
