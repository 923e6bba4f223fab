// Package app assembles the services shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/config"
	"github.com/kailas-cloud/colmap/internal/db"
	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/metrics"
	budgetrepo "github.com/kailas-cloud/colmap/internal/repository/budget"
	"github.com/kailas-cloud/colmap/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/colmap/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/colmap/internal/usecase/embedding"
)

const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// Embedders builds the per-model embedder chains:
// OpenAI -> Cached (when a store is available) -> Instrumented.
type Embedders struct {
	cfg     config.EmbeddingConfig
	store   db.Store
	budgets map[string]*embeddinguc.BudgetTracker
	logger  *zap.Logger
}

// NewEmbedders creates one budget tracker per provider with a limit.
// store may be nil; caching and budget persistence are then disabled.
func NewEmbedders(ctx context.Context, cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) *Embedders {
	e := &Embedders{
		cfg:     cfg,
		store:   store,
		budgets: make(map[string]*embeddinguc.BudgetTracker),
		logger:  logger,
	}
	for name, p := range cfg.Providers {
		if p.Budget.DailyTokenLimit <= 0 && p.Budget.MonthlyTokenLimit <= 0 {
			continue
		}
		action := embeddinguc.BudgetActionWarn
		if p.Budget.Action == string(embeddinguc.BudgetActionReject) {
			action = embeddinguc.BudgetActionReject
		}
		budget := embeddinguc.NewBudgetTracker(name, p.Budget.DailyTokenLimit, p.Budget.MonthlyTokenLimit, action, logger)
		if store != nil {
			budget.WithStore(ctx, budgetrepo.New(store, budgetDailyTTL, budgetMonthlyTTL))
		}
		e.budgets[name] = budget
	}
	return e
}

// Registry returns a registry restricted to the configured models.
func (e *Embedders) Registry() *embeddinguc.Registry {
	return embeddinguc.NewRegistry(e.Build, e.cfg.Models(), e.logger)
}

// Budgets returns the configured trackers keyed by provider.
func (e *Embedders) Budgets() map[string]*embeddinguc.BudgetTracker {
	return e.budgets
}

// Build assembles the chain for one model. It is an embeddinguc.Factory.
func (e *Embedders) Build(model string) (domain.Embedder, error) {
	base, provName, err := e.base(model)
	if err != nil {
		return nil, err
	}

	var embedder domain.Embedder = base
	if e.store != nil {
		embedder = embcache.New(base, e.store, model, metrics.EmbeddingCacheTotal, e.logger)
	}

	// A typed nil *BudgetTracker would not compare equal to a nil interface.
	var budget embeddinguc.BudgetChecker
	if b, ok := e.budgets[provName]; ok {
		budget = b
	}
	return embeddinguc.NewInstrumentedEmbedder(embedder, provName, model, budget, e.logger), nil
}

// HealthChecker returns a checker probing the provider behind model.
func (e *Embedders) HealthChecker(model string) (domain.HealthChecker, error) {
	base, _, err := e.base(model)
	if err != nil {
		return nil, err
	}
	return base, nil
}

func (e *Embedders) base(model string) (*openaiEmb.Embedder, string, error) {
	vec, ok := e.cfg.Model(model)
	if !ok {
		return nil, "", fmt.Errorf("%w: model %q is not configured", domain.ErrInvalidInput, model)
	}
	prov, ok := e.cfg.Providers[vec.Provider]
	if !ok {
		return nil, "", fmt.Errorf("%w: provider %q is not configured", domain.ErrInvalidInput, vec.Provider)
	}
	return openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     prov.APIKey,
		BaseURL:    prov.BaseURL,
		Model:      vec.Model,
		Dimensions: vec.Dimensions,
		Provider:   vec.Provider,
		MaxRetries: prov.Retry.MaxRetries,
		RetryBase:  time.Duration(prov.Retry.BaseDelayMs) * time.Millisecond,
		Logger:     e.logger,
	}), vec.Provider, nil
}
