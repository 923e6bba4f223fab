// Package forecast runs forecast queries against the warehouse and records their history.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain"
	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
	"github.com/kailas-cloud/colmap/internal/metrics"
)

// Job is a single query submission.
type Job struct {
	Query          string
	Params         map[string]any
	Labels         map[string]string
	TimeoutSeconds int // 0 = no job-level timeout
}

// Request asks for a forecast over a timeframe.
type Request struct {
	Timeframe      domfc.Timeframe
	Product        string
	TimeoutSeconds int
	RequestedBy    string
}

// Response is a finished forecast with the window it covered.
type Response struct {
	domfc.Result
	Timeframe domfc.Timeframe `json:"timeframe"`
	Product   string          `json:"product,omitempty"`
}

// Service runs forecast jobs.
type Service struct {
	engine QueryEngine
	runs   RunRecorder
	table  string
	now    func() time.Time
	logger *zap.Logger
}

// New creates a forecast service. runs may be nil to skip history.
func New(engine QueryEngine, runs RunRecorder, table string, logger *zap.Logger) *Service {
	if table == "" {
		table = DefaultTable
	}
	return &Service{
		engine: engine,
		runs:   runs,
		table:  table,
		now:    time.Now,
		logger: logger,
	}
}

// Run executes a query job. Timeouts above domfc.MaxJobTimeout are rejected.
func (s *Service) Run(ctx context.Context, job Job) (domfc.Result, error) {
	if job.Query == "" {
		return domfc.Result{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	timeout := time.Duration(job.TimeoutSeconds) * time.Second
	if job.TimeoutSeconds < 0 || timeout > domfc.MaxJobTimeout {
		return domfc.Result{}, fmt.Errorf("%w: job timeout must be between 0 and %d seconds",
			domain.ErrInvalidInput, int(domfc.MaxJobTimeout.Seconds()))
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.logger.Info("Running forecast job",
		zap.Any("labels", job.Labels),
		zap.Int("timeout_seconds", job.TimeoutSeconds),
	)

	start := s.now()
	jobID, rows, err := s.engine.Run(ctx, job.Query, job.Params)
	duration := s.now().Sub(start)
	metrics.ForecastJobDuration.Observe(duration.Seconds())

	if err != nil {
		metrics.ForecastJobsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return domfc.Result{}, fmt.Errorf("%w: job exceeded %ds timeout: %w", domain.ErrQueryFailed, job.TimeoutSeconds, err)
		}
		return domfc.Result{}, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}
	metrics.ForecastJobsTotal.WithLabelValues("success").Inc()

	s.logger.Info("Forecast job finished",
		zap.String("job_id", jobID),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", duration),
	)

	return domfc.Result{JobID: jobID, Rows: rows, Duration: duration}, nil
}

// Forecast builds the forecast query for a timeframe, runs it and records
// the run. A history write failure is logged, never returned.
func (s *Service) Forecast(ctx context.Context, req Request) (Response, error) {
	q, err := BuildQuery(QueryParams{
		StartDate: req.Timeframe.StartDate,
		EndDate:   req.Timeframe.EndDate,
		Product:   req.Product,
		Table:     s.table,
	})
	if err != nil {
		return Response{}, err
	}

	requestedAt := s.now()
	labels := map[string]string{"action": "forecast"}
	if req.RequestedBy != "" {
		labels["requested_by"] = req.RequestedBy
	}

	res, err := s.Run(ctx, Job{
		Query:          q.SQL,
		Params:         q.Params,
		Labels:         labels,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	completedAt := s.now()

	run := domfc.Run{
		JobID:       res.JobID,
		Query:       q.SQL,
		RequestedAt: requestedAt.UTC(),
		CompletedAt: completedAt.UTC(),
		DurationMs:  completedAt.Sub(requestedAt).Milliseconds(),
		Status:      domfc.StatusSuccess,
		Params: map[string]any{
			"startDate": req.Timeframe.StartDate,
			"endDate":   req.Timeframe.EndDate,
			"product":   req.Product,
		},
		Rows:        res.Rows,
		RequestedBy: req.RequestedBy,
	}
	if err != nil {
		run.JobID = uuid.NewString()
		run.Status = domfc.StatusError
		run.Error = err.Error()
	}
	s.record(ctx, run)

	if err != nil {
		return Response{}, err
	}
	return Response{Result: res, Timeframe: req.Timeframe, Product: req.Product}, nil
}

func (s *Service) record(ctx context.Context, run domfc.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.Warn("Failed to persist forecast run",
			zap.String("job_id", run.JobID),
			zap.Error(err),
		)
	}
}
