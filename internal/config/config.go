package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultModel        = "text-embedding-3-small"
	confidenceThreshold = 0.6
	maxJobTimeoutSec    = 120
)

// Config holds the colmap service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Mapping   MappingConfig   `yaml:"mapping"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	History   HistoryConfig   `yaml:"history"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings. Without addrs the service
// runs with mapping persistence, run history and the embedding cache disabled.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a Redis store is configured.
func (d DatabaseConfig) Enabled() bool { return len(d.Addrs) > 0 }

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers map[string]VectorizerConfig `yaml:"vectorizers"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// RetryConfig controls retries of transient provider failures.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries"`   // 0 = transport default, negative = off
	BaseDelayMs int `yaml:"base_delay_ms"` // 0 = transport default
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Budget  BudgetConfig `yaml:"budget"`
	Retry   RetryConfig  `yaml:"retry"`
}

// VectorizerConfig binds a model to a provider. Every vectorizer model is
// selectable per mapping request.
type VectorizerConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// MappingConfig holds auto-mapping settings.
type MappingConfig struct {
	DefaultModel        string  `yaml:"default_model"`
	SampleSize          int     `yaml:"sample_size"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"` // fixed at 0.6; other values are rejected
	CatalogPath         string  `yaml:"catalog_path"`         // empty = built-in sales catalog
}

// WarehouseConfig holds forecast warehouse settings.
type WarehouseConfig struct {
	Path             string `yaml:"path"`
	Table            string `yaml:"table"`
	MaxJobTimeoutSec int    `yaml:"max_job_timeout_sec"`
}

// HistoryConfig holds forecast run history settings.
type HistoryConfig struct {
	MaxRunsPerUser int `yaml:"max_runs_per_user"`
}

// Model returns the vectorizer config serving model.
func (e EmbeddingConfig) Model(model string) (VectorizerConfig, bool) {
	for _, v := range e.Vectorizers {
		if v.Model == model {
			return v, true
		}
	}
	return VectorizerConfig{}, false
}

// Models lists the models of all vectorizers.
func (e EmbeddingConfig) Models() []string {
	out := make([]string, 0, len(e.Vectorizers))
	for _, v := range e.Vectorizers {
		out = append(out, v.Model)
	}
	sort.Strings(out)
	return out
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates a YAML config file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 130
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Mapping.DefaultModel == "" {
		c.Mapping.DefaultModel = defaultModel
	}
	if c.Mapping.SampleSize <= 0 {
		c.Mapping.SampleSize = 5
	}
	if c.Mapping.ConfidenceThreshold == 0 {
		c.Mapping.ConfidenceThreshold = confidenceThreshold
	}
	if c.Warehouse.Path == "" {
		c.Warehouse.Path = "colmap.db"
	}
	if c.Warehouse.Table == "" {
		c.Warehouse.Table = "sample_sales"
	}
	if c.Warehouse.MaxJobTimeoutSec <= 0 {
		c.Warehouse.MaxJobTimeoutSec = maxJobTimeoutSec
	}
	if c.History.MaxRunsPerUser <= 0 {
		c.History.MaxRunsPerUser = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	for name, p := range c.Embedding.Providers {
		switch p.Budget.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"embedding.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, p.Budget.Action,
			)
		}
	}
	for name, v := range c.Embedding.Vectorizers {
		if v.Model == "" {
			return fmt.Errorf("embedding.vectorizers.%s.model is required", name)
		}
		if _, ok := c.Embedding.Providers[v.Provider]; !ok {
			return fmt.Errorf("embedding.vectorizers.%s.provider %q is not configured", name, v.Provider)
		}
	}
	if len(c.Embedding.Vectorizers) > 0 {
		if _, ok := c.Embedding.Model(c.Mapping.DefaultModel); !ok {
			return fmt.Errorf("mapping.default_model %q has no vectorizer", c.Mapping.DefaultModel)
		}
	}
	if c.Mapping.ConfidenceThreshold != confidenceThreshold {
		return fmt.Errorf("mapping.confidence_threshold must be %.1f, got %g",
			confidenceThreshold, c.Mapping.ConfidenceThreshold)
	}
	if c.Warehouse.MaxJobTimeoutSec > maxJobTimeoutSec {
		return fmt.Errorf("warehouse.max_job_timeout_sec must be at most %d, got %d",
			maxJobTimeoutSec, c.Warehouse.MaxJobTimeoutSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
