// Package conversation routes free-text requests to forecast, simulation and
// history actions.
package conversation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/domain/dataset"
	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
	"github.com/kailas-cloud/colmap/internal/metrics"
	"github.com/kailas-cloud/colmap/internal/usecase/forecast"
)

// RecallLimit is the number of runs a recall request returns.
const RecallLimit = 5

// simulationLookback bounds how many recent runs are scanned for a
// successful one to simulate on.
const simulationLookback = 10

const (
	StatusOK    = "ok"
	StatusError = "error"
)

const (
	msgGenericError = "Something went wrong while processing your request. Please try again."
	msgUnknown      = "I couldn't match that request to a known action. Try asking for a forecast, simulation, or your previous runs."
	msgNoHistory    = "Forecast history is not configured, so there is nothing to simulate or recall."
	msgNoRecentRun  = "No recent forecast available to simulate. Run a forecast first."
)

// Response is the outcome of one conversational request.
type Response struct {
	Action       Action `json:"action"`
	Status       string `json:"status"`
	Payload      any    `json:"payload"`
	HumanMessage string `json:"humanMessage"`
}

// ForecastPayload is returned by the forecast action.
type ForecastPayload struct {
	JobID     string          `json:"jobId"`
	Rows      []dataset.Row   `json:"rows"`
	Timeframe domfc.Timeframe `json:"timeframe"`
}

// SimulationPayload is returned by the simulate action.
type SimulationPayload struct {
	BaseJobID     string        `json:"baseJobId"`
	SimulatedRows []dataset.Row `json:"simulatedRows"`
	ChangePercent float64       `json:"changePercent"`
}

// RunSummary is one entry of a recall payload.
type RunSummary struct {
	JobID       string        `json:"job_id"`
	RequestedAt time.Time     `json:"requested_at"`
	Status      domfc.Status  `json:"status"`
	Rows        []dataset.Row `json:"rows"`
}

// Service handles conversational requests.
type Service struct {
	forecaster Forecaster
	history    RunHistory
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a conversation service. history may be nil; simulate and
// recall then answer with an error response.
func New(forecaster Forecaster, history RunHistory, logger *zap.Logger) *Service {
	return &Service{
		forecaster: forecaster,
		history:    history,
		now:        time.Now,
		logger:     logger,
	}
}

// Handle classifies text and runs the matching action. Handler failures are
// logged and reported as an error response, never returned.
func (s *Service) Handle(ctx context.Context, text, userID string) Response {
	action := Classify(text)

	var (
		resp Response
		err  error
	)
	switch action {
	case ActionForecast:
		resp, err = s.handleForecast(ctx, text, userID)
	case ActionSimulate:
		resp, err = s.handleSimulation(ctx, text, userID)
	case ActionRecall:
		resp, err = s.handleRecall(ctx, userID)
	default:
		resp = Response{Action: ActionUnknown, Status: StatusError, HumanMessage: msgUnknown}
	}

	if err != nil {
		s.logger.Error("Conversational action failed",
			zap.String("action", string(action)),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		resp = Response{Action: action, Status: StatusError, HumanMessage: msgGenericError}
	}

	metrics.ConversationActionsTotal.WithLabelValues(string(resp.Action), resp.Status).Inc()
	return resp
}

func (s *Service) handleForecast(ctx context.Context, text, userID string) (Response, error) {
	tf := ParseTimeframe(text, s.now())
	product := ParseProduct(text)

	s.logger.Info("Running conversational forecast",
		zap.String("user_id", userID),
		zap.String("start_date", tf.StartDate),
		zap.String("end_date", tf.EndDate),
		zap.String("product", product),
	)

	res, err := s.forecaster.Forecast(ctx, forecast.Request{
		Timeframe:   tf,
		Product:     product,
		RequestedBy: userID,
	})
	if err != nil {
		return Response{}, fmt.Errorf("forecast: %w", err)
	}

	target := product
	if target == "" {
		target = "all products"
	}
	return Response{
		Action: ActionForecast,
		Status: StatusOK,
		Payload: ForecastPayload{
			JobID:     res.JobID,
			Rows:      res.Rows,
			Timeframe: tf,
		},
		HumanMessage: fmt.Sprintf("Forecast ready for %s between %s and %s.", target, tf.StartDate, tf.EndDate),
	}, nil
}

func (s *Service) handleSimulation(ctx context.Context, text, userID string) (Response, error) {
	direction, percent := parseAdjustment(text)
	signed := percent
	if direction == "decrease" {
		signed = -percent
	}

	if s.history == nil {
		return Response{Action: ActionSimulate, Status: StatusError, HumanMessage: msgNoHistory}, nil
	}
	runs, err := s.history.Recent(ctx, userID, simulationLookback)
	if err != nil {
		return Response{}, fmt.Errorf("recent runs: %w", err)
	}
	base, ok := latestSuccessful(runs)
	if !ok {
		return Response{Action: ActionSimulate, Status: StatusError, HumanMessage: msgNoRecentRun}, nil
	}

	rows := make([]dataset.Row, len(base.Rows))
	for i, r := range base.Rows {
		rows[i] = simulateRow(r, signed)
	}

	return Response{
		Action: ActionSimulate,
		Status: StatusOK,
		Payload: SimulationPayload{
			BaseJobID:     base.JobID,
			SimulatedRows: rows,
			ChangePercent: signed,
		},
		HumanMessage: fmt.Sprintf("Applied a %s of %g%% to the most recent forecast results.", direction, percent),
	}, nil
}

// latestSuccessful returns the newest run that did not fail. Runs are newest first.
func latestSuccessful(runs []domfc.Run) (domfc.Run, bool) {
	for _, r := range runs {
		if r.Status == domfc.StatusSuccess {
			return r, true
		}
	}
	return domfc.Run{}, false
}

func (s *Service) handleRecall(ctx context.Context, userID string) (Response, error) {
	if s.history == nil {
		return Response{Action: ActionRecall, Status: StatusError, HumanMessage: msgNoHistory}, nil
	}
	runs, err := s.history.Recent(ctx, userID, RecallLimit)
	if err != nil {
		return Response{}, fmt.Errorf("recall: %w", err)
	}

	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = RunSummary{JobID: r.JobID, RequestedAt: r.RequestedAt, Status: r.Status, Rows: r.Rows}
	}
	return Response{
		Action:       ActionRecall,
		Status:       StatusOK,
		Payload:      summaries,
		HumanMessage: fmt.Sprintf("Found %d recent forecasts for your account.", len(summaries)),
	}, nil
}
