package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/internal/healthscore/service"
	"github.com/itamcloud/itam-backend/pkg/httputil"
	"github.com/itamcloud/itam-backend/pkg/logger"
	"github.com/itamcloud/itam-backend/pkg/messaging"
)

// Engine runs scoring passes and single organization rescoring
type Engine interface {
	RunPass(ctx context.Context) (*domain.Report, error)
	ScoreOrganization(ctx context.Context, id string) (*domain.ScoreResult, error)
}

// TriggerResponse is the body returned by a successful pass
type TriggerResponse struct {
	Success   bool                 `json:"success"`
	Processed int                  `json:"processed"`
	Results   []domain.ScoreResult `json:"results"`
}

// ScoreResponse is the body returned by a single organization rescore
type ScoreResponse struct {
	Success bool                `json:"success"`
	Result  *domain.ScoreResult `json:"result"`
}

// HealthScoreHandler handles health score endpoints. Authentication and
// role checks happen in middleware before these run.
type HealthScoreHandler struct {
	engine Engine
	logger *logger.Logger
}

// NewHealthScoreHandler creates a new health score handler
func NewHealthScoreHandler(engine Engine, log *logger.Logger) *HealthScoreHandler {
	return &HealthScoreHandler{
		engine: engine,
		logger: log,
	}
}

// Trigger runs a full pass and reports every organization's outcome
func (h *HealthScoreHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)

	report, err := h.engine.RunPass(ctx)
	if err != nil {
		h.logger.WithRequestID(httputil.GetRequestID(ctx)).Error().
			Err(err).
			Msg("health score pass failed")
		httputil.Error(w, err)
		return
	}

	results := report.Results
	if results == nil {
		results = []domain.ScoreResult{}
	}

	httputil.JSON(w, http.StatusOK, TriggerResponse{
		Success:   true,
		Processed: report.Processed,
		Results:   results,
	})
}

// ScoreOrganization rescores the organization named in the path
func (h *HealthScoreHandler) ScoreOrganization(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := httputil.ValidateVar("id", id, "required,uuid"); err != nil {
		httputil.Error(w, err)
		return
	}

	ctx := requestContext(r)
	result, err := h.engine.ScoreOrganization(ctx, id)
	if err != nil {
		h.logger.WithRequestID(httputil.GetRequestID(ctx)).Warn().
			Err(err).
			Str("organization_id", id).
			Msg("organization rescore failed")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ScoreResponse{Success: true, Result: result})
}

// requestContext tags the context as an HTTP trigger and reuses the request
// ID as the correlation ID of any events the pass publishes
func requestContext(r *http.Request) context.Context {
	ctx := service.WithTrigger(r.Context(), service.TriggerHTTP)
	if id := httputil.GetRequestID(ctx); id != "" {
		ctx = messaging.WithCorrelationID(ctx, id)
	}
	return ctx
}
