package conversation

import (
	"context"
	"time"

	"go.uber.org/zap"

	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
	"github.com/kailas-cloud/colmap/internal/usecase/forecast"
)

// --- Mocks ---

type mockForecaster struct {
	req  forecast.Request
	resp forecast.Response
	err  error
}

func (m *mockForecaster) Forecast(_ context.Context, req forecast.Request) (forecast.Response, error) {
	m.req = req
	if m.err != nil {
		return forecast.Response{}, m.err
	}
	return m.resp, nil
}

type mockHistory struct {
	runs   []domfc.Run
	err    error
	user   string
	limits []int
}

func (m *mockHistory) Recent(_ context.Context, user string, limit int) ([]domfc.Run, error) {
	m.user = user
	m.limits = append(m.limits, limit)
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// --- Helpers ---

var testNow = time.Date(2025, time.May, 20, 15, 0, 0, 0, time.UTC)

func newTestService(f Forecaster, h RunHistory) *Service {
	s := New(f, h, zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}
