package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/config"
	"github.com/kailas-cloud/colmap/internal/db"
	dbRedis "github.com/kailas-cloud/colmap/internal/db/redis"
	dommap "github.com/kailas-cloud/colmap/internal/domain/mapping"
	"github.com/kailas-cloud/colmap/internal/metrics"
	"github.com/kailas-cloud/colmap/internal/repository/forecastrun"
	mappingrepo "github.com/kailas-cloud/colmap/internal/repository/mapping"
	"github.com/kailas-cloud/colmap/internal/usecase/automap"
	"github.com/kailas-cloud/colmap/internal/usecase/conversation"
	"github.com/kailas-cloud/colmap/internal/usecase/forecast"
	healthuc "github.com/kailas-cloud/colmap/internal/usecase/health"
	usageuc "github.com/kailas-cloud/colmap/internal/usecase/usage"
	"github.com/kailas-cloud/colmap/internal/warehouse/sqlite"
)

// App is the wired object graph. Fields backed by the key-value store
// (Mappings, Runs) are nil when no database is configured.
type App struct {
	Config        config.Config
	Store         db.Store
	Warehouse     *sqlite.Engine
	Embedders     *Embedders
	Mapper        *automap.Service
	Catalog       []dommap.Candidate
	Mappings      *mappingrepo.Repo
	Runs          *forecastrun.Repo
	Forecasts     *forecast.Service
	Conversations *conversation.Service
	Health        *healthuc.Service
	Usage         *usageuc.Service

	logger *zap.Logger
}

// New connects the backends and builds every service.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Register()

	a := &App{Config: cfg, logger: logger}

	if cfg.Database.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		a.Store = store
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
	} else {
		logger.Warn("No database configured; mapping persistence, run history and embedding cache are disabled")
	}

	wh, err := sqlite.Open(cfg.Warehouse.Path, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Warehouse = wh

	catalog, err := LoadCatalog(cfg.Mapping.CatalogPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Catalog = catalog

	a.Embedders = NewEmbedders(ctx, cfg.Embedding, a.Store, logger)
	a.Mapper = automap.New(a.Embedders.Registry(), logger).
		WithSampleSize(cfg.Mapping.SampleSize).
		WithDefaultModel(cfg.Mapping.DefaultModel)

	// Pass nil interfaces, not typed nil pointers, when history is off.
	var recorder forecast.RunRecorder
	var history conversation.RunHistory
	if a.Store != nil {
		a.Mappings = mappingrepo.New(a.Store)
		a.Runs = forecastrun.New(a.Store, cfg.History.MaxRunsPerUser, logger)
		recorder = a.Runs
		history = a.Runs
	}

	a.Forecasts = forecast.New(wh, recorder, cfg.Warehouse.Table, logger)
	a.Conversations = conversation.New(a.Forecasts, history, logger)

	var dbPinger healthuc.Pinger
	if a.Store != nil {
		dbPinger = a.Store
	}
	var embChecker healthuc.EmbeddingChecker
	if hc, err := a.Embedders.HealthChecker(cfg.Mapping.DefaultModel); err == nil {
		embChecker = hc
	} else {
		logger.Warn("Embedding health check disabled", zap.Error(err))
	}
	a.Health = healthuc.New(dbPinger, embChecker, wh)

	budgets := make(map[string]usageuc.BudgetReader)
	for name, b := range a.Embedders.Budgets() {
		budgets[name] = b
	}
	a.Usage = usageuc.New(budgets)

	return a, nil
}

// Close releases the backends.
func (a *App) Close() {
	if a.Warehouse != nil {
		if err := a.Warehouse.Close(); err != nil {
			a.logger.Warn("Failed to close warehouse", zap.Error(err))
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

// LoadCatalog reads a YAML candidate catalog; an empty path selects the
// built-in sales catalog.
func LoadCatalog(path string) ([]dommap.Candidate, error) {
	if path == "" {
		return dommap.SalesCatalog(), nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	catalog, err := dommap.ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return catalog, nil
}
