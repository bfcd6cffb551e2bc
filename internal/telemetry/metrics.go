// Package telemetry exposes the OpenTelemetry instruments of the health score
// engine. Instruments are created from the global meter provider, which is a
// no-op until the process installs an SDK provider.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/itamcloud/itam-backend/healthscore"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Pass metrics
	PassesTotal  metric.Int64Counter
	PassDuration metric.Float64Histogram

	// Per-organization metrics
	OrganizationsScoredTotal metric.Int64Counter
	OrganizationsFailedTotal metric.Int64Counter
	Score                    metric.Int64Histogram

	// Event metrics
	EventPublishErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider())
	})
	return metrics
}

// NewMetrics creates all instruments on the given provider
func NewMetrics(provider metric.MeterProvider) *Metrics {
	meter := provider.Meter(meterName)

	m := &Metrics{}

	m.PassesTotal, _ = meter.Int64Counter(
		"itam.healthscore.passes.total",
		metric.WithDescription("Total number of scoring passes run"),
		metric.WithUnit("{pass}"),
	)

	m.PassDuration, _ = meter.Float64Histogram(
		"itam.healthscore.pass.duration",
		metric.WithDescription("Duration of a full scoring pass"),
		metric.WithUnit("ms"),
	)

	m.OrganizationsScoredTotal, _ = meter.Int64Counter(
		"itam.healthscore.organizations.scored.total",
		metric.WithDescription("Total number of organizations scored and written"),
		metric.WithUnit("{organization}"),
	)

	m.OrganizationsFailedTotal, _ = meter.Int64Counter(
		"itam.healthscore.organizations.failed.total",
		metric.WithDescription("Total number of organizations whose scoring failed"),
		metric.WithUnit("{organization}"),
	)

	m.Score, _ = meter.Int64Histogram(
		"itam.healthscore.score",
		metric.WithDescription("Distribution of computed health scores"),
		metric.WithUnit("{score}"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	)

	m.EventPublishErrorsTotal, _ = meter.Int64Counter(
		"itam.healthscore.events.publish.errors.total",
		metric.WithDescription("Total number of health score events that failed to publish"),
		metric.WithUnit("{error}"),
	)

	return m
}

// RecordPass records one finished pass
func (m *Metrics) RecordPass(ctx context.Context, trigger string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("trigger", trigger))
	m.PassesTotal.Add(ctx, 1, attrs)
	m.PassDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
}

// RecordScored records one organization written with score
func (m *Metrics) RecordScored(ctx context.Context, score int) {
	m.OrganizationsScoredTotal.Add(ctx, 1)
	m.Score.Record(ctx, int64(score))
}

// RecordFailed records one organization that could not be scored. step names
// the failing stage, e.g. "list tickets".
func (m *Metrics) RecordFailed(ctx context.Context, step string) {
	m.OrganizationsFailedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

// RecordPublishError records an event that could not be published
func (m *Metrics) RecordPublishError(ctx context.Context, eventType string) {
	m.EventPublishErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}
