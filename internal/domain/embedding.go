package domain

import (
	"context"
)

// DefaultEmbeddingModel is used when a caller does not name a model.
const DefaultEmbeddingModel = "text-embedding-3-small"

// KeyPrefix namespaces every key colmap writes to the key-value store.
const KeyPrefix = "colmap:"

// Embedder vectorizes a batch of texts in a single call.
// Output order must match input order.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BatchEmbeddingResult carries embedding vectors and aggregate token usage through the decorator chain.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

type usageKey struct{}

// Usage accumulates embedding token consumption for one request.
// Handlers attach it to the context; services add to it after each provider call.
type Usage struct {
	Calls       int
	TotalTokens int
}

// ContextWithUsage returns a context carrying a fresh Usage collector.
func ContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext returns the collector attached to ctx, or nil.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// Add records one provider call. Safe on a nil receiver; not safe for concurrent use.
func (u *Usage) Add(tokens int) {
	if u == nil {
		return
	}
	u.Calls++
	u.TotalTokens += tokens
}
