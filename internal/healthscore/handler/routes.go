package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Trigger paths. The first is kept for existing dashboard callers.
const (
	TriggerPath      = "/functions/v1/calculate-health-scores"
	TriggerAliasPath = "/api/v1/admin/health-scores/run"
	ScorePath        = "/api/v1/admin/organizations/{id}/health-score"
)

// Mount registers the health score routes behind the given middlewares
func (h *HealthScoreHandler) Mount(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(guards...)
		r.Post(TriggerPath, h.Trigger)
		r.Post(TriggerAliasPath, h.Trigger)
		r.Post(ScorePath, h.ScoreOrganization)
	})
}
