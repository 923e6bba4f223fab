// Package health aggregates component checks for the /health endpoint.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentWarehouse = "warehouse"
)

const defaultCheckTimeout = 3 * time.Second

// Pinger is satisfied by the Redis store and the SQLite warehouse.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes the default embedding model.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	checks  []check
	timeout time.Duration
}

// New creates a Service. Any component may be nil and is then not reported.
func New(db Pinger, embedding EmbeddingChecker, warehouse Pinger) *Service {
	s := &Service{timeout: defaultCheckTimeout}
	if db != nil {
		s.checks = append(s.checks, check{ComponentDatabase, db.Ping})
	}
	if embedding != nil {
		s.checks = append(s.checks, check{ComponentEmbedding, embedding.HealthCheck})
	}
	if warehouse != nil {
		s.checks = append(s.checks, check{ComponentWarehouse, warehouse.Ping})
	}
	return s
}

// Check runs all component checks concurrently, each bounded by a timeout.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.checks))

	var wg sync.WaitGroup
	for i, c := range s.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := c.fn(cctx); err != nil {
				results[i] = CheckError
				return
			}
			results[i] = CheckOK
		}()
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(s.checks))
	failed := 0
	for i, c := range s.checks {
		checks[c.name] = results[i]
		if results[i] == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
