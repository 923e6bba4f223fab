package colmap

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	"github.com/kailas-cloud/colmap/internal/domain/mapping"
	openaiEmb "github.com/kailas-cloud/colmap/internal/transport/openai"
	"github.com/kailas-cloud/colmap/internal/usecase/automap"
	embeddinguc "github.com/kailas-cloud/colmap/internal/usecase/embedding"
)

// Embedder vectorizes a batch of texts in one call, preserving input order.
type Embedder = domain.Embedder

// BatchEmbeddingResult is what an Embedder returns.
type BatchEmbeddingResult = domain.BatchEmbeddingResult

// Row is one dataset record with ordered columns.
type Row = dataset.Row

// Candidate is a target field.
type Candidate = mapping.Candidate

// ScoredCandidate is a candidate with its similarity score.
type ScoredCandidate = mapping.ScoredCandidate

// ColumnMapping is the decision for one source column.
type ColumnMapping = mapping.ColumnMapping

// Errors returned by AutoMap. Test with errors.Is.
var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrRateLimited            = domain.ErrRateLimited
)

// NewRow builds a row from parallel column and value slices.
func NewRow(columns []string, values []any) Row { return dataset.NewRow(columns, values) }

// SalesCatalog returns the built-in sales target schema.
func SalesCatalog() []Candidate { return mapping.SalesCatalog() }

// Client maps dataset columns to catalogs.
type Client struct {
	svc *automap.Service
}

// New creates a Client. Exactly one of WithEmbedder or WithOpenAI is required.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil && !cfg.openAI {
		return nil, errors.New("colmap: embedder required (use WithEmbedder or WithOpenAI)")
	}
	if cfg.embedder != nil && cfg.openAI {
		return nil, errors.New("colmap: WithEmbedder and WithOpenAI are mutually exclusive")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var embedders automap.Embedders
	if cfg.embedder != nil {
		embedders = automap.Static(cfg.embedder)
	} else {
		embedders = embeddinguc.NewRegistry(func(model string) (domain.Embedder, error) {
			base := openaiEmb.NewEmbedder(&openaiEmb.Config{
				APIKey:     cfg.apiKey,
				BaseURL:    cfg.baseURL,
				Model:      model,
				Dimensions: cfg.dimensions,
				Provider:   "openai",
				MaxRetries: cfg.maxRetries,
				Logger:     logger,
			})
			return embeddinguc.NewInstrumentedEmbedder(base, "openai", model, nil, logger), nil
		}, cfg.allowedModels, logger)
	}

	svc := automap.New(embedders, logger).
		WithSampleSize(cfg.sampleSize).
		WithDefaultModel(cfg.defaultModel)
	return &Client{svc: svc}, nil
}

// AutoMap maps every column of the first row onto candidates.
// An empty candidate list yields one unmatched mapping per column.
func (c *Client) AutoMap(ctx context.Context, rows []Row, candidates []Candidate, opts ...MapOption) ([]ColumnMapping, error) {
	var mc mapConfig
	for _, o := range opts {
		o(&mc)
	}
	if err := mapping.Validate(candidates); err != nil {
		return nil, err
	}
	return c.svc.AutoMapColumns(ctx, automap.Config{
		Rows:       rows,
		Candidates: candidates,
		Model:      mc.model,
		TopK:       mc.topK,
	})
}
