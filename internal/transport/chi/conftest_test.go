package chi

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain"
	dommap "github.com/kailas-cloud/colmap/internal/domain/mapping"
	domusage "github.com/kailas-cloud/colmap/internal/domain/usage"
	"github.com/kailas-cloud/colmap/internal/usecase/automap"
	"github.com/kailas-cloud/colmap/internal/usecase/conversation"
	"github.com/kailas-cloud/colmap/internal/usecase/forecast"
	"github.com/kailas-cloud/colmap/internal/usecase/health"
)

// --- Mocks ---

type mockMapper struct {
	cfg      automap.Config
	called   bool
	tokens   int
	mappings []dommap.ColumnMapping
	err      error
}

func (m *mockMapper) AutoMapColumns(ctx context.Context, cfg automap.Config) ([]dommap.ColumnMapping, error) {
	m.called = true
	m.cfg = cfg
	if m.err != nil {
		return nil, m.err
	}
	if m.tokens > 0 {
		domain.UsageFromContext(ctx).Add(m.tokens)
	}
	return m.mappings, nil
}

type mockMappingStore struct {
	mu       sync.Mutex
	saved    map[string][]dommap.ColumnMapping
	records  []dommap.Record
	saveErr  error
	listErr  error
	listArgs [2]string
	getErr   error
	getArgs  [3]string
	delErr   error
	deleted  []string
}

func (m *mockMappingStore) Save(_ context.Context, tenantID, datasetID string, mappings []dommap.ColumnMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[string][]dommap.ColumnMapping)
	}
	m.saved[tenantID+"/"+datasetID] = mappings
	return nil
}

func (m *mockMappingStore) List(_ context.Context, tenantID, datasetID string) ([]dommap.Record, error) {
	m.listArgs = [2]string{tenantID, datasetID}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func (m *mockMappingStore) Get(_ context.Context, tenantID, datasetID, column string) (dommap.Record, error) {
	m.getArgs = [3]string{tenantID, datasetID, column}
	if m.getErr != nil {
		return dommap.Record{}, m.getErr
	}
	for _, rec := range m.records {
		if rec.SourceColumn == column {
			return rec, nil
		}
	}
	return dommap.Record{}, domain.ErrNotFound
}

func (m *mockMappingStore) Delete(_ context.Context, _, _ string, columns ...string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, columns...)
	return nil
}

type mockForecaster struct {
	req  forecast.Request
	resp forecast.Response
	err  error
}

func (m *mockForecaster) Forecast(_ context.Context, req forecast.Request) (forecast.Response, error) {
	m.req = req
	return m.resp, m.err
}

type mockConversations struct {
	text, userID string
	resp         conversation.Response
}

func (m *mockConversations) Handle(_ context.Context, text, userID string) conversation.Response {
	m.text, m.userID = text, userID
	return m.resp
}

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(context.Context) health.Report { return m.report }

type mockUsage struct {
	period  domusage.Period
	reports []domusage.Report
}

func (m *mockUsage) Reports(_ context.Context, period domusage.Period) []domusage.Report {
	m.period = period
	return m.reports
}

// --- Helpers ---

type testDeps struct {
	mapper        *mockMapper
	mappings      *mockMappingStore
	forecasts     *mockForecaster
	conversations *mockConversations
	health        *mockHealth
	usage         *mockUsage
}

func newTestDeps() *testDeps {
	return &testDeps{
		mapper:        &mockMapper{},
		mappings:      &mockMappingStore{},
		forecasts:     &mockForecaster{},
		conversations: &mockConversations{},
		health:        &mockHealth{report: health.Report{Status: health.Healthy}},
		usage:         &mockUsage{},
	}
}

func (d *testDeps) server() *Server {
	return NewServer(Deps{
		Mapper:        d.mapper,
		Mappings:      d.mappings,
		Forecasts:     d.forecasts,
		Conversations: d.conversations,
		Health:        d.health,
		Usage:         d.usage,
	}, zap.NewNop())
}
