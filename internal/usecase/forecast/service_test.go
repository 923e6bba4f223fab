package forecast

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
	"github.com/kailas-cloud/colmap/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

func forecastRows() []dataset.Row {
	cols := []string{"sale_date", "product", "forecast_sum"}
	return []dataset.Row{dataset.NewRow(cols, []any{"2025-01-01", "widget", 60.5})}
}

func TestService_Run(t *testing.T) {
	eng := &mockEngine{jobID: "job-1", rows: forecastRows()}
	svc := New(eng, nil, "", zap.NewNop())

	res, err := svc.Run(context.Background(), Job{Query: "SELECT 1", Params: map[string]any{"a": 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.JobID != "job-1" || len(res.Rows) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if eng.params["a"] != 1 {
		t.Errorf("params not forwarded: %v", eng.params)
	}
}

func TestService_Run_Validation(t *testing.T) {
	svc := New(&mockEngine{}, nil, "", zap.NewNop())

	tests := []struct {
		name string
		job  Job
	}{
		{"empty query", Job{}},
		{"negative timeout", Job{Query: "SELECT 1", TimeoutSeconds: -1}},
		{"timeout above cap", Job{Query: "SELECT 1", TimeoutSeconds: 121}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Run(context.Background(), tt.job)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestService_Run_TimeoutAtCapAccepted(t *testing.T) {
	svc := New(&mockEngine{jobID: "j"}, nil, "", zap.NewNop())
	if _, err := svc.Run(context.Background(), Job{Query: "SELECT 1", TimeoutSeconds: 120}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_Run_EngineError(t *testing.T) {
	svc := New(&mockEngine{err: errors.New("no such table")}, nil, "", zap.NewNop())

	_, err := svc.Run(context.Background(), Job{Query: "SELECT 1"})
	if !errors.Is(err, domain.ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
}

func TestService_Run_Timeout(t *testing.T) {
	svc := New(&mockEngine{block: true}, nil, "", zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Run(ctx, Job{Query: "SELECT 1", TimeoutSeconds: 1})
	if !errors.Is(err, domain.ErrQueryFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout wrapped in ErrQueryFailed, got %v", err)
	}
}

func TestService_Forecast_RecordsRun(t *testing.T) {
	eng := &mockEngine{jobID: "job-7", rows: forecastRows()}
	rec := &mockRecorder{}
	svc := New(eng, rec, "", zap.NewNop())

	resp, err := svc.Forecast(context.Background(), Request{
		Timeframe:   domfc.Timeframe{StartDate: "2025-01-01", EndDate: "2025-01-31"},
		Product:     "widget",
		RequestedBy: "alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.JobID != "job-7" || resp.Product != "widget" || resp.Timeframe.EndDate != "2025-01-31" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if eng.params["product"] != "widget" {
		t.Errorf("product filter not applied: %v", eng.params)
	}

	if len(rec.runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(rec.runs))
	}
	run := rec.runs[0]
	if run.JobID != "job-7" || run.Status != domfc.StatusSuccess || run.RequestedBy != "alice" {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.Params["startDate"] != "2025-01-01" || run.Params["product"] != "widget" {
		t.Errorf("unexpected run params: %v", run.Params)
	}
	if !strings.Contains(run.Query, "WITH historical AS") {
		t.Errorf("expected query text in run, got %q", run.Query)
	}
	if len(run.Rows) != 1 {
		t.Errorf("expected rows in run, got %d", len(run.Rows))
	}
}

func TestService_Forecast_RecordsFailedRun(t *testing.T) {
	rec := &mockRecorder{}
	svc := New(&mockEngine{err: errors.New("boom")}, rec, "", zap.NewNop())

	_, err := svc.Forecast(context.Background(), Request{
		Timeframe: domfc.Timeframe{StartDate: "2025-01-01", EndDate: "2025-01-31"},
	})
	if !errors.Is(err, domain.ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
	if len(rec.runs) != 1 {
		t.Fatalf("expected failed run to be recorded, got %d", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Status != domfc.StatusError || run.Error == "" || run.JobID == "" {
		t.Errorf("unexpected failed run: %+v", run)
	}
}

func TestService_Forecast_SaveFailureIsNotReturned(t *testing.T) {
	rec := &mockRecorder{err: errors.New("redis down")}
	svc := New(&mockEngine{jobID: "j"}, rec, "", zap.NewNop())

	_, err := svc.Forecast(context.Background(), Request{
		Timeframe: domfc.Timeframe{StartDate: "2025-01-01", EndDate: "2025-01-31"},
	})
	if err != nil {
		t.Fatalf("history failure must not fail the forecast: %v", err)
	}
}

func TestService_Forecast_InvalidTimeframe(t *testing.T) {
	eng := &mockEngine{}
	rec := &mockRecorder{}
	svc := New(eng, rec, "", zap.NewNop())

	_, err := svc.Forecast(context.Background(), Request{
		Timeframe: domfc.Timeframe{StartDate: "2025-02-01", EndDate: "2025-01-01"},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if eng.query != "" || len(rec.runs) != 0 {
		t.Error("invalid requests must not reach the engine or history")
	}
}
