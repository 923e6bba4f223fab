package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/config"
	"github.com/kailas-cloud/colmap/internal/domain"
	dommap "github.com/kailas-cloud/colmap/internal/domain/mapping"
	domusage "github.com/kailas-cloud/colmap/internal/domain/usage"
	embeddinguc "github.com/kailas-cloud/colmap/internal/usecase/embedding"
)

func testEmbeddingConfig() config.EmbeddingConfig {
	return config.EmbeddingConfig{
		Providers: map[string]config.ProviderConfig{
			"openai": {
				APIKey: "sk-test",
				Budget: config.BudgetConfig{DailyTokenLimit: 1000, Action: "reject"},
			},
			"local": {BaseURL: "http://localhost:1"},
		},
		Vectorizers: map[string]config.VectorizerConfig{
			"small": {Provider: "openai", Model: "text-embedding-3-small"},
			"local": {Provider: "local", Model: "nomic"},
		},
	}
}

func TestEmbedders_BudgetsOnlyForLimitedProviders(t *testing.T) {
	e := NewEmbedders(context.Background(), testEmbeddingConfig(), nil, zap.NewNop())

	budgets := e.Budgets()
	if len(budgets) != 1 {
		t.Fatalf("expected 1 budget tracker, got %d", len(budgets))
	}
	b, ok := budgets["openai"]
	if !ok {
		t.Fatal("expected a tracker for openai")
	}
	if got := b.Counter(domusage.PeriodDay).Limit; got != 1000 {
		t.Errorf("daily limit = %d", got)
	}
}

func TestEmbedders_Build(t *testing.T) {
	e := NewEmbedders(context.Background(), testEmbeddingConfig(), nil, zap.NewNop())

	emb, err := e.Build("text-embedding-3-small")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := emb.(*embeddinguc.InstrumentedEmbedder); !ok {
		t.Errorf("expected the instrumented decorator outermost, got %T", emb)
	}

	if _, err := e.Build("unknown"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEmbedders_RegistryRejectsUnconfiguredModel(t *testing.T) {
	reg := NewEmbedders(context.Background(), testEmbeddingConfig(), nil, zap.NewNop()).Registry()

	if _, err := reg.ForModel("nomic"); err != nil {
		t.Fatalf("ForModel(nomic): %v", err)
	}
	if _, err := reg.ForModel("text-embedding-3-large"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEmbedders_UnknownProvider(t *testing.T) {
	cfg := testEmbeddingConfig()
	cfg.Vectorizers["orphan"] = config.VectorizerConfig{Provider: "missing", Model: "orphan-model"}
	e := NewEmbedders(context.Background(), cfg, nil, zap.NewNop())

	if _, err := e.HealthChecker("orphan-model"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	got, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if len(got) != len(dommap.SalesCatalog()) {
		t.Errorf("expected the built-in catalog, got %d candidates", len(got))
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "candidates:\n  - id: sku\n    description: Stock keeping unit\n    synonyms: [item_code]\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = LoadCatalog(path)
	if err != nil {
		t.Fatalf("file catalog: %v", err)
	}
	if len(got) != 1 || got[0].ID != "sku" || got[0].Synonyms[0] != "item_code" {
		t.Errorf("unexpected catalog: %+v", got)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestNew_WithoutDatabase(t *testing.T) {
	cfg := config.Config{
		Embedding: testEmbeddingConfig(),
		Mapping:   config.MappingConfig{DefaultModel: "text-embedding-3-small", SampleSize: 5},
		Warehouse: config.WarehouseConfig{Path: filepath.Join(t.TempDir(), "wh.db"), Table: "sample_sales"},
	}

	a, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Store != nil || a.Mappings != nil || a.Runs != nil {
		t.Error("store-backed components must be nil without a database")
	}
	if a.Mapper == nil || a.Forecasts == nil || a.Conversations == nil || a.Health == nil || a.Usage == nil {
		t.Error("expected core services to be wired")
	}
	if err := a.Warehouse.Ping(context.Background()); err != nil {
		t.Errorf("warehouse ping: %v", err)
	}
	if got := a.Usage.Reports(context.Background(), "day"); len(got) != 1 || got[0].Provider != "openai" {
		t.Errorf("expected one usage report for openai, got %+v", got)
	}
}
