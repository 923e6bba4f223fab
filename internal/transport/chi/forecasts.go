package chi

import (
	"net/http"

	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
	"github.com/kailas-cloud/colmap/internal/usecase/forecast"
)

// CreateForecastRequest is the body of POST /forecasts.
type CreateForecastRequest struct {
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	Product        string `json:"product,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

// CreateForecast handles POST /forecasts.
func (s *Server) CreateForecast(w http.ResponseWriter, r *http.Request) {
	var req CreateForecastRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.forecasts.Forecast(r.Context(), forecast.Request{
		Timeframe:      domfc.Timeframe{StartDate: req.StartDate, EndDate: req.EndDate},
		Product:        req.Product,
		TimeoutSeconds: req.TimeoutSeconds,
		RequestedBy:    req.UserID,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
