package automap

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	"github.com/kailas-cloud/colmap/internal/domain/mapping"
	logpkg "github.com/kailas-cloud/colmap/internal/logger"
	"github.com/kailas-cloud/colmap/internal/metrics"
)

// Config is the input of a single auto-mapping run.
type Config struct {
	Rows       []dataset.Row
	Candidates []mapping.Candidate
	Model      string // empty selects the service default model
	TopK       int    // reserved
}

// Service maps dataset columns to target fields. It holds no per-call state.
type Service struct {
	embedders    Embedders
	sampleSize   int
	defaultModel string
	logger       *zap.Logger
}

// New creates an auto-mapping service.
func New(embedders Embedders, logger *zap.Logger) *Service {
	return &Service{
		embedders:    embedders,
		sampleSize:   DefaultSampleSize,
		defaultModel: domain.DefaultEmbeddingModel,
		logger:       logger,
	}
}

// WithDefaultModel sets the model used when a call does not name one.
func (s *Service) WithDefaultModel(model string) *Service {
	if model != "" {
		s.defaultModel = model
	}
	return s
}

// WithSampleSize overrides how many values describe each column.
func (s *Service) WithSampleSize(n int) *Service {
	if n > 0 {
		s.sampleSize = n
	}
	return s
}

// AutoMapColumns ranks every candidate for every column of the first row and
// resolves a best match per column. Columns and candidates are embedded in two
// concurrent batch calls; any provider failure fails the whole run.
func (s *Service) AutoMapColumns(ctx context.Context, cfg Config) ([]mapping.ColumnMapping, error) {
	if len(cfg.Rows) == 0 {
		return nil, fmt.Errorf("%w: no sample rows", domain.ErrInvalidInput)
	}

	model := cfg.Model
	if model == "" {
		model = s.defaultModel
	}

	columns := dataset.Columns(cfg.Rows)
	columnContexts := make([]string, len(columns))
	for i, c := range columns {
		columnContexts[i] = BuildColumnContext(c, cfg.Rows, s.sampleSize)
	}
	candidateContexts := make([]string, len(cfg.Candidates))
	for i, c := range cfg.Candidates {
		candidateContexts[i] = BuildCandidateContext(c)
	}

	embedder, err := s.embedders.ForModel(model)
	if err != nil {
		return nil, fmt.Errorf("resolve embedder for %q: %w", model, err)
	}

	log := logpkg.For(ctx, s.logger)
	log.Info("Requesting embeddings for columns and candidates",
		zap.Int("column_count", len(columns)),
		zap.Int("candidate_count", len(candidateContexts)),
		zap.String("model", model),
	)

	columnRes, candidateRes, err := embedBoth(ctx, embedder, columnContexts, candidateContexts)
	if err != nil {
		return nil, err
	}

	usage := domain.UsageFromContext(ctx)
	for _, r := range []domain.BatchEmbeddingResult{columnRes, candidateRes} {
		if len(r.Embeddings) > 0 {
			usage.Add(r.TotalTokens)
		}
	}

	out := make([]mapping.ColumnMapping, len(columns))
	for i, column := range columns {
		ranked := rank(columnRes.Embeddings[i], candidateRes.Embeddings, cfg.Candidates)
		best, score, viaFallback := resolve(column, ranked)

		out[i] = mapping.ColumnMapping{
			Column:           column,
			BestMatch:        best,
			Score:            score,
			CandidatesRanked: ranked,
		}
		metrics.MappingColumnsTotal.WithLabelValues(outcome(best, viaFallback)).Inc()

		if viaFallback {
			log.Debug("Lexical fallback overrode low-confidence match",
				zap.String("column", column),
				zap.String("top_candidate", ranked[0].Candidate.ID),
				zap.Float64("top_score", ranked[0].Score),
				zap.String("fallback_candidate", best.ID),
			)
		}
	}

	return out, nil
}

// embedBoth issues the column and candidate batches concurrently and checks
// that each batch came back with one vector per input.
func embedBoth(
	ctx context.Context, e domain.Embedder, columns, candidates []string,
) (domain.BatchEmbeddingResult, domain.BatchEmbeddingResult, error) {
	var colRes, candRes domain.BatchEmbeddingResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := embedBatch(gctx, e, columns)
		if err != nil {
			return fmt.Errorf("embed columns: %w", err)
		}
		colRes = res
		return nil
	})
	g.Go(func() error {
		res, err := embedBatch(gctx, e, candidates)
		if err != nil {
			return fmt.Errorf("embed candidates: %w", err)
		}
		candRes = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.BatchEmbeddingResult{}, domain.BatchEmbeddingResult{}, err
	}
	return colRes, candRes, nil
}

// embedBatch skips the provider for an empty batch.
func embedBatch(ctx context.Context, e domain.Embedder, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: [][]float32{}}, nil
	}
	res, err := e.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	if len(res.Embeddings) != len(texts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"provider returned %d vectors for %d inputs: %w",
			len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}
	return res, nil
}

func outcome(best *mapping.Candidate, viaFallback bool) string {
	switch {
	case best == nil:
		return "unmatched"
	case viaFallback:
		return "fallback"
	default:
		return "similarity"
	}
}
