// Package dataset models tabular sample data as ordered rows.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Row is an ordered mapping from column name to a scalar value
// (string, number, bool or nil). Column order is insertion order.
type Row struct {
	columns []string
	values  map[string]any
}

// NewRow builds a row from parallel column and value slices.
// A repeated column keeps its first position and its last value.
func NewRow(columns []string, values []any) Row {
	r := Row{values: make(map[string]any, len(columns))}
	for i, c := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.Set(c, v)
	}
	return r
}

// Set assigns a value, appending the column if it is new.
func (r *Row) Set(column string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Get returns the value for column and whether the column is present.
func (r Row) Get(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Columns derives the column set of a dataset from its first row only.
// Columns that appear solely in later rows are ignored.
func Columns(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Columns()
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", c, err)
		}
		v, err := json.Marshal(r.values[c])
		if err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", c, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, keeping key order.
// Numbers are kept as json.Number; nested objects and arrays are rejected.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("row: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}

	*r = Row{values: make(map[string]any)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("row key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("row: unexpected key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("row value %q: %w", key, err)
		}
		if _, nested := valTok.(json.Delim); nested {
			return fmt.Errorf("row value %q: nested values are not supported", key)
		}
		r.Set(key, valTok)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return fmt.Errorf("row: %w", err)
	}
	return nil
}
