package conversation

import (
	"context"

	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
	"github.com/kailas-cloud/colmap/internal/usecase/forecast"
)

// Forecaster runs and records a forecast for a timeframe.
type Forecaster interface {
	Forecast(ctx context.Context, req forecast.Request) (forecast.Response, error)
}

// RunHistory lists a user's recent forecast runs, newest first.
type RunHistory interface {
	Recent(ctx context.Context, user string, limit int) ([]domfc.Run, error)
}
