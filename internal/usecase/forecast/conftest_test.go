package forecast

import (
	"context"
	"sync"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
)

// --- Mocks ---

type mockEngine struct {
	jobID  string
	rows   []dataset.Row
	err    error
	block  bool // wait for ctx cancellation
	query  string
	params map[string]any
}

func (m *mockEngine) Run(ctx context.Context, query string, params map[string]any) (string, []dataset.Row, error) {
	m.query = query
	m.params = params
	if m.block {
		<-ctx.Done()
		return "", nil, ctx.Err()
	}
	if m.err != nil {
		return "", nil, m.err
	}
	return m.jobID, m.rows, nil
}

type mockRecorder struct {
	mu   sync.Mutex
	runs []domfc.Run
	err  error
}

func (m *mockRecorder) Save(_ context.Context, run domfc.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}
