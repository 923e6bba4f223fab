package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{
				"openai": {APIKey: "test-key"},
			},
			Vectorizers: map[string]VectorizerConfig{
				"small": {Provider: "openai", Model: "text-embedding-3-small"},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Providers["openai"] = ProviderConfig{
		APIKey:  "test-key",
		BaseURL: "https://api.example.com/v1/",
		Budget: BudgetConfig{
			DailyTokenLimit: 1000000,
			Action:          "invalid_action",
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.providers.openai.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Providers["openai"] = ProviderConfig{
				APIKey: "test-key",
				Budget: BudgetConfig{Action: action},
			}

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_DatabaseOptional(t *testing.T) {
	cfg := validConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error without database: %v", err)
	}
	if cfg.Database.Enabled() {
		t.Error("database must be disabled without addrs")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name: "vectorizer without model",
			mutate: func(c *Config) {
				c.Embedding.Vectorizers["broken"] = VectorizerConfig{Provider: "openai"}
			},
			want: "embedding.vectorizers.broken.model is required",
		},
		{
			name: "vectorizer with unknown provider",
			mutate: func(c *Config) {
				c.Embedding.Vectorizers["x"] = VectorizerConfig{Provider: "nope", Model: "m"}
			},
			want: `embedding.vectorizers.x.provider "nope" is not configured`,
		},
		{
			name:   "default model without vectorizer",
			mutate: func(c *Config) { c.Mapping.DefaultModel = "other-model" },
			want:   `mapping.default_model "other-model" has no vectorizer`,
		},
		{
			name:   "tuned confidence threshold",
			mutate: func(c *Config) { c.Mapping.ConfidenceThreshold = 0.7 },
			want:   "mapping.confidence_threshold must be 0.6, got 0.7",
		},
		{
			name:   "job timeout above cap",
			mutate: func(c *Config) { c.Warehouse.MaxJobTimeoutSec = 300 },
			want:   "warehouse.max_job_timeout_sec must be at most 120, got 300",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || err.Error() != tt.want {
				t.Errorf("got %v, want %q", err, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 130 {
		t.Errorf("expected WriteTimeoutSec=130, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Mapping.DefaultModel != "text-embedding-3-small" {
		t.Errorf("unexpected DefaultModel %q", cfg.Mapping.DefaultModel)
	}
	if cfg.Mapping.SampleSize != 5 {
		t.Errorf("expected SampleSize=5, got %d", cfg.Mapping.SampleSize)
	}
	if cfg.Mapping.ConfidenceThreshold != 0.6 {
		t.Errorf("expected ConfidenceThreshold=0.6, got %v", cfg.Mapping.ConfidenceThreshold)
	}
	if cfg.Warehouse.Path != "colmap.db" || cfg.Warehouse.Table != "sample_sales" {
		t.Errorf("unexpected warehouse defaults: %+v", cfg.Warehouse)
	}
	if cfg.Warehouse.MaxJobTimeoutSec != 120 {
		t.Errorf("expected MaxJobTimeoutSec=120, got %d", cfg.Warehouse.MaxJobTimeoutSec)
	}
	if cfg.History.MaxRunsPerUser != 100 {
		t.Errorf("expected MaxRunsPerUser=100, got %d", cfg.History.MaxRunsPerUser)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15},
		Mapping:   MappingConfig{DefaultModel: "m", SampleSize: 3},
		Warehouse: WarehouseConfig{Path: ":memory:", Table: "sales", MaxJobTimeoutSec: 30},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Mapping.DefaultModel != "m" || cfg.Mapping.SampleSize != 3 {
		t.Errorf("mapping overridden: %+v", cfg.Mapping)
	}
	if cfg.Warehouse.Path != ":memory:" || cfg.Warehouse.MaxJobTimeoutSec != 30 {
		t.Errorf("warehouse overridden: %+v", cfg.Warehouse)
	}
}

func TestEmbeddingConfig_Models(t *testing.T) {
	e := EmbeddingConfig{Vectorizers: map[string]VectorizerConfig{
		"b": {Provider: "p", Model: "model-b", Dimensions: 256},
		"a": {Provider: "p", Model: "model-a"},
	}}

	models := e.Models()
	if len(models) != 2 || models[0] != "model-a" || models[1] != "model-b" {
		t.Errorf("unexpected models: %v", models)
	}
	v, ok := e.Model("model-b")
	if !ok || v.Dimensions != 256 {
		t.Errorf("unexpected vectorizer: %+v, %v", v, ok)
	}
	if _, ok := e.Model("missing"); ok {
		t.Error("expected missing model lookup to fail")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("COLMAP_TEST_KEY", "secret")

	got := string(expandEnvVars([]byte("a: ${COLMAP_TEST_KEY}\nb: ${COLMAP_TEST_UNSET:-fallback}\nc: ${COLMAP_TEST_UNSET}")))
	want := "a: secret\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("COLMAP_TEST_PORT", "9090")
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := `
http:
  port: ${COLMAP_TEST_PORT}
embedding:
  providers:
    openai:
      api_key: k
  vectorizers:
    small:
      provider: openai
      model: text-embedding-3-small
warehouse:
  path: ":memory:"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Warehouse.Path != ":memory:" || cfg.Warehouse.Table != "sample_sales" {
		t.Errorf("unexpected warehouse: %+v", cfg.Warehouse)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("local config must load: %v", err)
	}
	if cfg.Mapping.DefaultModel != "text-embedding-3-small" {
		t.Errorf("unexpected default model %q", cfg.Mapping.DefaultModel)
	}
	if !cfg.Database.Enabled() {
		t.Error("local config should enable the database")
	}
}
