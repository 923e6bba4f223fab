package embedding

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain"
)

// Factory builds the embedder chain for one model.
type Factory func(model string) (domain.Embedder, error)

// Registry hands out one embedder chain per model, built on first use.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	build   Factory
	allowed []string
	chains  map[string]domain.Embedder
	logger  *zap.Logger
}

// NewRegistry creates a registry. An empty allowed list accepts any model.
func NewRegistry(build Factory, allowed []string, logger *zap.Logger) *Registry {
	return &Registry{
		build:   build,
		allowed: allowed,
		chains:  make(map[string]domain.Embedder),
		logger:  logger,
	}
}

// ForModel returns the cached chain for model, building it if needed.
func (r *Registry) ForModel(model string) (domain.Embedder, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: model is required", domain.ErrInvalidInput)
	}
	if len(r.allowed) > 0 && !slices.Contains(r.allowed, model) {
		return nil, fmt.Errorf("%w: model %q is not enabled", domain.ErrInvalidInput, model)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.chains[model]; ok {
		return e, nil
	}

	e, err := r.build(model)
	if err != nil {
		return nil, fmt.Errorf("build embedder for %q: %w", model, err)
	}
	r.chains[model] = e

	r.logger.Info("Embedder initialized", zap.String("model", model))
	return e, nil
}

// Models lists the models with an initialized chain.
func (r *Registry) Models() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.chains))
	for m := range r.chains {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}
