// Package forecast holds the records produced by forecast jobs.
package forecast

import (
	"time"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
)

// MaxJobTimeout caps how long a single query job may run.
const MaxJobTimeout = 120 * time.Second

// Status of a finished forecast run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Timeframe is an inclusive date window in YYYY-MM-DD form.
type Timeframe struct {
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Granularity string `json:"granularity,omitempty"`
}

// Result is the outcome of one warehouse query job.
type Result struct {
	JobID    string        `json:"jobId"`
	Rows     []dataset.Row `json:"rows"`
	Duration time.Duration `json:"-"`
}

// Run is an immutable history entry for a forecast job.
type Run struct {
	JobID       string         `json:"job_id"`
	Query       string         `json:"query"`
	RequestedAt time.Time      `json:"requested_at"`
	CompletedAt time.Time      `json:"completed_at"`
	DurationMs  int64          `json:"duration_ms"`
	Status      Status         `json:"status"`
	Params      map[string]any `json:"params"`
	Rows        []dataset.Row  `json:"rows"`
	Error       string         `json:"error,omitempty"`
	RequestedBy string         `json:"requested_by,omitempty"`
}
