package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
)

const readBatch = 1000

// ReadParquet reads a flat Parquet file. Columns follow the leaf order of the
// schema (nested paths are joined with "."); nulls become nil.
func ReadParquet(path string) ([]dataset.Row, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	leaves := pf.Schema().Columns()
	columns := make([]string, len(leaves))
	for i, p := range leaves {
		columns[i] = strings.Join(p, ".")
	}

	var rows []dataset.Row
	buf := make([]parquet.Row, readBatch)
	for _, rg := range pf.RowGroups() {
		reader := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := reader.ReadRows(buf)
			for i := 0; i < n; i++ {
				rows = append(rows, toRow(columns, buf[i]))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return rows, nil
}

func toRow(columns []string, row parquet.Row) dataset.Row {
	values := make([]any, len(columns))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(values) {
			continue
		}
		values[col] = value(v)
	}
	return dataset.NewRow(columns, values)
}

func value(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	default:
		return v.String()
	}
}
