package colmap

import (
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	embedder Embedder

	openAI        bool
	apiKey        string
	baseURL       string
	dimensions    int
	maxRetries    int
	defaultModel  string
	sampleSize    int
	allowedModels []string

	logger *zap.Logger
}

// WithEmbedder uses e for every model.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI embeds through an OpenAI-compatible API. An empty baseURL
// selects the public OpenAI endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = true
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithDimensions requests shortened vectors from models that support it.
func WithDimensions(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = n
	})
}

// WithMaxRetries sets retries of transient provider failures. Negative disables retries.
func WithMaxRetries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRetries = n
	})
}

// WithModels restricts which models AutoMap accepts.
func WithModels(models ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.allowedModels = models
	})
}

// WithDefaultModel sets the model used when AutoMap is called without one.
func WithDefaultModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultModel = model
	})
}

// WithSampleSize sets how many non-null values describe each column.
func WithSampleSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.sampleSize = n
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// MapOption configures one AutoMap call.
type MapOption func(*mapConfig)

type mapConfig struct {
	model string
	topK  int
}

// Model selects the embedding model for one call.
func Model(name string) MapOption {
	return func(c *mapConfig) { c.model = name }
}

// TopK is accepted for compatibility; the full ranking is always returned.
func TopK(k int) MapOption {
	return func(c *mapConfig) { c.topK = k }
}
