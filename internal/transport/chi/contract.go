package chi

import (
	"context"

	dommap "github.com/kailas-cloud/colmap/internal/domain/mapping"
	domusage "github.com/kailas-cloud/colmap/internal/domain/usage"
	"github.com/kailas-cloud/colmap/internal/usecase/automap"
	"github.com/kailas-cloud/colmap/internal/usecase/conversation"
	"github.com/kailas-cloud/colmap/internal/usecase/forecast"
	"github.com/kailas-cloud/colmap/internal/usecase/health"
)

// Mapper computes column mappings.
type Mapper interface {
	AutoMapColumns(ctx context.Context, cfg automap.Config) ([]dommap.ColumnMapping, error)
}

// MappingStore persists mapping decisions per tenant and dataset.
type MappingStore interface {
	Save(ctx context.Context, tenantID, datasetID string, mappings []dommap.ColumnMapping) error
	List(ctx context.Context, tenantID, datasetID string) ([]dommap.Record, error)
	Get(ctx context.Context, tenantID, datasetID, column string) (dommap.Record, error)
	Delete(ctx context.Context, tenantID, datasetID string, columns ...string) error
}

// Forecaster runs forecast jobs.
type Forecaster interface {
	Forecast(ctx context.Context, req forecast.Request) (forecast.Response, error)
}

// Conversations answers free-text requests.
type Conversations interface {
	Handle(ctx context.Context, text, userID string) conversation.Response
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// UsageReporter reports embedding token budgets.
type UsageReporter interface {
	Reports(ctx context.Context, period domusage.Period) []domusage.Report
}
