package consumers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/internal/healthscore/service"
	"github.com/itamcloud/itam-backend/pkg/actor"
	"github.com/itamcloud/itam-backend/pkg/errors"
	"github.com/itamcloud/itam-backend/pkg/logger"
	"github.com/itamcloud/itam-backend/pkg/messaging"
)

// QueueName is the durable queue score requests are consumed from
const QueueName = "health-service.score-requests"

// OrganizationScorer rescores one organization
type OrganizationScorer interface {
	ScoreOrganization(ctx context.Context, id string) (*domain.ScoreResult, error)
}

// ScoreRequestHandler handles score request events (testable without RabbitMQ)
type ScoreRequestHandler struct {
	scorer OrganizationScorer
	logger *logger.Logger
}

// NewScoreRequestHandler creates a new score request handler
func NewScoreRequestHandler(scorer OrganizationScorer, log *logger.Logger) *ScoreRequestHandler {
	return &ScoreRequestHandler{
		scorer: scorer,
		logger: log,
	}
}

// HandleScoreRequested rescores the requested organization. Requests that can
// never succeed (bad payload, unknown organization) are acknowledged and
// dropped; anything else is returned so the message is retried.
func (h *ScoreRequestHandler) HandleScoreRequested(ctx context.Context, event *messaging.Event) error {
	var data messaging.HealthScoreRequestedEvent
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.Warn().Err(err).Str("event_id", event.ID).Msg("dropping malformed score request")
		return nil
	}

	if _, err := uuid.Parse(data.OrganizationID); err != nil {
		h.logger.Warn().Str("organization_id", data.OrganizationID).Msg("dropping score request with invalid organization id")
		return nil
	}

	ctx = service.WithTrigger(ctx, service.TriggerEvent)
	if data.RequestedBy != "" {
		ctx = actor.WithActor(ctx, &actor.Actor{ID: data.RequestedBy})
	}
	result, err := h.scorer.ScoreOrganization(ctx, data.OrganizationID)
	if err != nil {
		if errors.StatusCode(err) == http.StatusNotFound {
			h.logger.Warn().Str("organization_id", data.OrganizationID).Msg("score requested for unknown organization")
			return nil
		}
		return fmt.Errorf("score organization %s: %w", data.OrganizationID, err)
	}

	h.logger.Info().
		Str("organization_id", result.OrganizationID).
		Int("health_score", *result.HealthScore).
		Str("requested_by", data.RequestedBy).
		Msg("organization rescored on request")

	return nil
}

// ScoreRequestConsumer consumes score requests from the organization exchange
type ScoreRequestConsumer struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
}

// NewScoreRequestConsumer declares the queue, binds it and registers the handler
func NewScoreRequestConsumer(rmq *messaging.RabbitMQ, scorer OrganizationScorer, log *logger.Logger) (*ScoreRequestConsumer, error) {
	if err := rmq.DeclareDeadLetterQueue("health-service"); err != nil {
		return nil, err
	}

	consumer, err := messaging.NewConsumer(rmq, QueueName, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeOrganizationEvents, messaging.EventHealthScoreRequested); err != nil {
		return nil, err
	}

	handler := NewScoreRequestHandler(scorer, log)
	consumer.RegisterHandler(messaging.EventHealthScoreRequested, handler.HandleScoreRequested)

	return &ScoreRequestConsumer{
		consumer: consumer,
		logger:   log,
	}, nil
}

// Start starts consuming messages
func (c *ScoreRequestConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
