// Package chi exposes the mapping, forecast and conversation services over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain"
	dommap "github.com/kailas-cloud/colmap/internal/domain/mapping"
	domusage "github.com/kailas-cloud/colmap/internal/domain/usage"
	"github.com/kailas-cloud/colmap/internal/metrics"
	healthuc "github.com/kailas-cloud/colmap/internal/usecase/health"
)

const maxBodyBytes = 10 << 20

// Server holds the HTTP handlers.
type Server struct {
	mapper        Mapper
	mappings      MappingStore
	catalog       []dommap.Candidate
	forecasts     Forecaster
	conversations Conversations
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
}

// Deps wires the services behind the API. Mappings may be nil when no
// store is configured; persisting requests then fail with 503.
type Deps struct {
	Mapper        Mapper
	Mappings      MappingStore
	Catalog       []dommap.Candidate
	Forecasts     Forecaster
	Conversations Conversations
	Health        HealthChecker
	Usage         UsageReporter
}

// NewServer creates an HTTP API server. An empty catalog falls back to the
// built-in sales catalog for requests without candidates.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	catalog := deps.Catalog
	if len(catalog) == 0 {
		catalog = dommap.SalesCatalog()
	}
	return &Server{
		mapper:        deps.Mapper,
		mappings:      deps.Mappings,
		catalog:       catalog,
		forecasts:     deps.Forecasts,
		conversations: deps.Conversations,
		health:        deps.Health,
		usage:         deps.Usage,
		logger:        logger,
	}
}

// Router mounts the API with its middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Post("/mappings", s.CreateMappings)
	r.Get("/mappings/{tenant}/{dataset}", s.ListMappings)
	r.Delete("/mappings/{tenant}/{dataset}", s.DeleteMappings)
	r.Get("/mappings/{tenant}/{dataset}/{column}", s.GetMapping)
	r.Post("/forecasts", s.CreateForecast)
	r.Post("/conversations", s.Converse)
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period    domusage.Period   `json:"period"`
	Providers []domusage.Report `json:"providers"`
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var reports []domusage.Report
	if s.usage != nil {
		reports = s.usage.Reports(r.Context(), period)
	}
	if reports == nil {
		reports = []domusage.Report{}
	}
	writeJSON(w, http.StatusOK, UsageResponse{Period: period, Providers: reports})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}
