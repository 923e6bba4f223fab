package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain"
	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	dommap "github.com/kailas-cloud/colmap/internal/domain/mapping"
	logpkg "github.com/kailas-cloud/colmap/internal/logger"
	"github.com/kailas-cloud/colmap/internal/usecase/automap"
)

// CreateMappingsRequest is the body of POST /mappings. Omitted candidates
// select the server catalog; an explicit empty list maps against nothing.
type CreateMappingsRequest struct {
	Rows       []dataset.Row      `json:"rows"`
	Candidates []dommap.Candidate `json:"candidates"`
	Model      string             `json:"model,omitempty"`
	TopK       int                `json:"topK,omitempty"`
	TenantID   string             `json:"tenantId,omitempty"`
	DatasetID  string             `json:"datasetId,omitempty"`
}

// CreateMappingsResponse is the body of a successful POST /mappings.
type CreateMappingsResponse struct {
	Mappings  []dommap.ColumnMapping `json:"mappings"`
	Persisted bool                   `json:"persisted"`
}

// ListMappingsResponse is the body of GET /mappings/{tenant}/{dataset}.
type ListMappingsResponse struct {
	TenantID  string          `json:"tenantId"`
	DatasetID string          `json:"datasetId"`
	Records   []dommap.Record `json:"records"`
}

// CreateMappings handles POST /mappings.
func (s *Server) CreateMappings(w http.ResponseWriter, r *http.Request) {
	var req CreateMappingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	persist := req.TenantID != "" || req.DatasetID != ""
	if persist && (req.TenantID == "" || req.DatasetID == "") {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "tenantId and datasetId must be given together")
		return
	}
	if persist && s.mappings == nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: mapping store is not configured", domain.ErrStorageUnavailable))
		return
	}

	candidates := req.Candidates
	if candidates == nil {
		candidates = s.catalog
	}
	if err := dommap.Validate(candidates); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx := r.Context()
	if persist {
		ctx = logpkg.WithFields(ctx, s.logger,
			zap.String("tenant_id", req.TenantID),
			zap.String("dataset_id", req.DatasetID),
		)
	}
	ctx, usage := domain.ContextWithUsage(ctx)
	mappings, err := s.mapper.AutoMapColumns(ctx, automap.Config{
		Rows:       req.Rows,
		Candidates: candidates,
		Model:      req.Model,
		TopK:       req.TopK,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)

	if persist {
		if err := s.mappings.Save(ctx, req.TenantID, req.DatasetID, mappings); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, CreateMappingsResponse{Mappings: mappings, Persisted: persist})
}

// ListMappings handles GET /mappings/{tenant}/{dataset}.
func (s *Server) ListMappings(w http.ResponseWriter, r *http.Request) {
	if s.mappings == nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: mapping store is not configured", domain.ErrStorageUnavailable))
		return
	}

	tenant := chi.URLParam(r, "tenant")
	ds := chi.URLParam(r, "dataset")

	records, err := s.mappings.List(r.Context(), tenant, ds)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListMappingsResponse{TenantID: tenant, DatasetID: ds, Records: records})
}

// GetMapping handles GET /mappings/{tenant}/{dataset}/{column}.
func (s *Server) GetMapping(w http.ResponseWriter, r *http.Request) {
	if s.mappings == nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: mapping store is not configured", domain.ErrStorageUnavailable))
		return
	}

	rec, err := s.mappings.Get(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "dataset"), chi.URLParam(r, "column"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteMappings handles DELETE /mappings/{tenant}/{dataset}?column=a&column=b.
// At least one column is required; the whole dataset is never dropped at once.
func (s *Server) DeleteMappings(w http.ResponseWriter, r *http.Request) {
	if s.mappings == nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: mapping store is not configured", domain.ErrStorageUnavailable))
		return
	}

	var columns []string
	for _, c := range r.URL.Query()["column"] {
		if c != "" {
			columns = append(columns, c)
		}
	}
	if len(columns) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "at least one column query parameter is required")
		return
	}

	if err := s.mappings.Delete(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "dataset"), columns...); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
