package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/domain/dataset"
)

// ReadFile picks the reader from the file extension (.csv or .parquet).
func ReadFile(path string) ([]dataset.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".parquet", ".pq":
		return ReadParquet(path)
	default:
		return nil, fmt.Errorf("%w: unsupported dataset format %q", domain.ErrInvalidInput, filepath.Ext(path))
	}
}
