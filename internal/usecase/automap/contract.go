package automap

import (
	"github.com/kailas-cloud/colmap/internal/domain"
)

// Embedders resolves a batch embedder for a model name.
// Implementations should build each chain once and reuse it across calls.
type Embedders interface {
	ForModel(model string) (domain.Embedder, error)
}

// staticEmbedders serves every model with the same embedder.
type staticEmbedders struct {
	embedder domain.Embedder
}

// Static wraps a single embedder, ignoring the requested model.
func Static(e domain.Embedder) Embedders {
	return staticEmbedders{embedder: e}
}

func (s staticEmbedders) ForModel(string) (domain.Embedder, error) {
	return s.embedder, nil
}
