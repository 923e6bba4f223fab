package forecast

import (
	"context"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
)

// QueryEngine executes parameterized SQL and returns the job ID and result rows.
type QueryEngine interface {
	Run(ctx context.Context, query string, params map[string]any) (string, []dataset.Row, error)
}

// RunRecorder persists forecast run history.
type RunRecorder interface {
	Save(ctx context.Context, run domfc.Run) error
}
