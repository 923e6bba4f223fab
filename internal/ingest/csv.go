// Package ingest reads sample datasets from CSV and Parquet files.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/domain/dataset"
)

// ReadCSV parses a CSV stream whose first record is the header. Cells are
// trimmed; a record shorter than the header gets "" for the missing cells.
func ReadCSV(r io.Reader) ([]dataset.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv has no header", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []dataset.Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		values := make([]any, len(columns))
		for i := range columns {
			cell := ""
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			values[i] = cell
		}
		rows = append(rows, dataset.NewRow(columns, values))
	}
	return rows, nil
}
