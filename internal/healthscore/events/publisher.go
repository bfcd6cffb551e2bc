package events

import (
	"context"
	"time"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/internal/telemetry"
	"github.com/itamcloud/itam-backend/pkg/logger"
	"github.com/itamcloud/itam-backend/pkg/messaging"
)

// ServiceName is stamped as the source of every published event
const ServiceName = "health-service"

// EventPublisher is satisfied by *messaging.Publisher
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// HealthScorePublisher publishes health score events. Failures are logged
// and counted, never returned: a score that was written stays written.
type HealthScorePublisher struct {
	publisher EventPublisher
	metrics   *telemetry.Metrics
	logger    *logger.Logger
}

// NewHealthScorePublisher declares the organization exchange and returns a publisher on it
func NewHealthScorePublisher(rmq *messaging.RabbitMQ, metrics *telemetry.Metrics, log *logger.Logger) (*HealthScorePublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeOrganizationEvents, ServiceName, log)
	if err != nil {
		return nil, err
	}

	return NewWithPublisher(publisher, metrics, log), nil
}

// NewWithPublisher wraps an arbitrary EventPublisher
func NewWithPublisher(p EventPublisher, metrics *telemetry.Metrics, log *logger.Logger) *HealthScorePublisher {
	return &HealthScorePublisher{
		publisher: p,
		metrics:   metrics,
		logger:    log,
	}
}

// NewNoop returns a publisher that drops every event. Used when RabbitMQ is disabled.
func NewNoop() *HealthScorePublisher {
	return &HealthScorePublisher{}
}

// PublishScoreUpdated publishes a score updated event
func (p *HealthScorePublisher) PublishScoreUpdated(ctx context.Context, org *domain.Organization, b domain.Breakdown, previous *int, scoredAt time.Time) {
	if p.publisher == nil {
		return
	}

	data := messaging.HealthScoreUpdatedEvent{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		HealthScore:      b.Total(),
		PreviousScore:    previous,
		Breakdown: messaging.ScoreBreakdown{
			Activity: b.Activity,
			Logins:   b.Logins,
			Tickets:  b.Tickets,
		},
		ScoredAt: scoredAt,
	}

	if err := p.publisher.Publish(ctx, messaging.EventHealthScoreUpdated, data); err != nil {
		p.metrics.RecordPublishError(ctx, messaging.EventHealthScoreUpdated)
		p.logger.Error().Err(err).Str("organization_id", org.ID).Msg("failed to publish health score updated event")
		return
	}

	p.logger.Debug().
		Str("organization_id", org.ID).
		Int("health_score", data.HealthScore).
		Bool("changed", data.Changed()).
		Msg("published health score updated event")
}

// PublishPassCompleted publishes a pass completed event
func (p *HealthScorePublisher) PublishPassCompleted(ctx context.Context, report *domain.Report) {
	if p.publisher == nil {
		return
	}

	data := messaging.HealthScorePassCompletedEvent{
		Processed:  report.Processed,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		DurationMs: report.Duration().Milliseconds(),
	}

	if err := p.publisher.Publish(ctx, messaging.EventHealthScorePassCompleted, data); err != nil {
		p.metrics.RecordPublishError(ctx, messaging.EventHealthScorePassCompleted)
		p.logger.Error().Err(err).Msg("failed to publish health score pass completed event")
	}
}
