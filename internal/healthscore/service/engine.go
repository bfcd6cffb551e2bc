package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/internal/healthscore/scoring"
	"github.com/itamcloud/itam-backend/internal/telemetry"
	"github.com/itamcloud/itam-backend/pkg/actor"
	"github.com/itamcloud/itam-backend/pkg/clock"
	"github.com/itamcloud/itam-backend/pkg/errors"
	"github.com/itamcloud/itam-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// OrganizationRepository is the organization storage the engine needs
type OrganizationRepository interface {
	ListAll(ctx context.Context) ([]*domain.Organization, error)
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	UpdateHealthScore(ctx context.Context, id string, score int) (*int, error)
}

// ProfileRepository counts recent logins
type ProfileRepository interface {
	CountRecentActiveLogins(ctx context.Context, orgID string, since, until time.Time) (int, error)
}

// TicketRepository lists ticket statuses in a trailing window
type TicketRepository interface {
	ListStatusesSince(ctx context.Context, orgID string, since time.Time) ([]domain.TicketStatus, error)
}

// EventPublisher announces written scores and finished passes
type EventPublisher interface {
	PublishScoreUpdated(ctx context.Context, org *domain.Organization, b domain.Breakdown, previous *int, scoredAt time.Time)
	PublishPassCompleted(ctx context.Context, report *domain.Report)
}

// Steps named in per-organization errors
const (
	stepCountLogins = "count recent logins"
	stepListTickets = "list tickets"
	stepUpdateScore = "update health score"
	stepPanic       = "panic"
)

const passFlightKey = "pass"

// Engine computes and persists organization health scores
type Engine struct {
	orgs        OrganizationRepository
	profiles    ProfileRepository
	tickets     TicketRepository
	clock       clock.Clock
	publisher   EventPublisher
	metrics     *telemetry.Metrics
	concurrency int
	logger      *logger.Logger

	passes singleflight.Group
}

// NewEngine creates a new engine. concurrency below 1 is treated as 1
// (organizations scored one after another).
func NewEngine(
	orgs OrganizationRepository,
	profiles ProfileRepository,
	tickets TicketRepository,
	clk clock.Clock,
	publisher EventPublisher,
	metrics *telemetry.Metrics,
	concurrency int,
	log *logger.Logger,
) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Engine{
		orgs:        orgs,
		profiles:    profiles,
		tickets:     tickets,
		clock:       clk,
		publisher:   publisher,
		metrics:     metrics,
		concurrency: concurrency,
		logger:      log.WithComponent("health_score_engine"),
	}
}

// RunPass scores every organization and returns the per-organization report.
// It fails only when the organization list cannot be read; any other failure
// is recorded on that organization's result. A call made while a pass is in
// flight waits for that pass and shares its report. The pass is detached from
// ctx cancellation once started.
func (e *Engine) RunPass(ctx context.Context) (*domain.Report, error) {
	trigger := TriggerFrom(ctx)

	v, err, shared := e.passes.Do(passFlightKey, func() (interface{}, error) {
		return e.runPass(context.WithoutCancel(ctx), trigger)
	})
	if shared {
		e.logger.Debug().Str("trigger", trigger).Msg("joined in-flight pass")
	}
	if err != nil {
		return nil, err
	}
	return v.(*domain.Report), nil
}

func (e *Engine) runPass(ctx context.Context, trigger string) (*domain.Report, error) {
	now := e.clock.Now()

	orgs, err := e.orgs.ListAll(ctx)
	if err != nil {
		e.logger.Error().Err(err).Str("trigger", trigger).Msg("failed to list organizations")
		return nil, errors.Internal("failed to list organizations", err)
	}

	e.logger.Info().
		Str("trigger", trigger).
		Str("triggered_by", actor.OrSystem(ctx).String()).
		Int("organization_count", len(orgs)).
		Int("concurrency", e.concurrency).
		Msg("health score pass started")

	results := make([]domain.ScoreResult, len(orgs))

	if e.concurrency == 1 {
		for i, org := range orgs {
			results[i], _ = e.scoreOne(ctx, org, now)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.concurrency)
		for i, org := range orgs {
			g.Go(func() error {
				// each worker owns results[i]
				results[i], _ = e.scoreOne(ctx, org, now)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := domain.NewReport(results, now, e.clock.Now())

	e.metrics.RecordPass(ctx, trigger, report.Duration())
	e.publisher.PublishPassCompleted(ctx, report)

	e.logger.Info().
		Str("trigger", trigger).
		Int("processed", report.Processed).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Dur("duration", report.Duration()).
		Msg("health score pass completed")

	return report, nil
}

// ScoreOrganization rescores a single organization. Unknown organizations
// return a not found error; a failed computation or write returns an
// internal error and leaves the stored score untouched.
func (e *Engine) ScoreOrganization(ctx context.Context, id string) (*domain.ScoreResult, error) {
	org, err := e.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("organization_id", id).
		Str("trigger", TriggerFrom(ctx)).
		Str("triggered_by", actor.OrSystem(ctx).String()).
		Msg("rescoring organization")

	result, err := e.scoreOne(ctx, org, e.clock.Now())
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("failed to score organization", err)
	}
	return &result, nil
}

// scoreOne reads facts, computes and writes one organization. The returned
// result always identifies the organization; on failure it carries the error
// message and err is the wrapped cause. A panic is recovered and reported the
// same way so it cannot abort the pass or kill a worker goroutine.
func (e *Engine) scoreOne(ctx context.Context, org *domain.Organization, now time.Time) (result domain.ScoreResult, err error) {
	result = domain.ScoreResult{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
	}

	log := e.logger.WithOrganizationID(org.ID)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s: %v", stepPanic, rec)
			e.metrics.RecordFailed(ctx, stepPanic)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic while scoring organization")
			result.HealthScore = nil
			result.Breakdown = nil
			result.Error = err.Error()
		}
	}()

	b, previous, step, scoreErr := e.score(ctx, org, now)
	if scoreErr != nil {
		err = fmt.Errorf("%s: %w", step, scoreErr)
		e.metrics.RecordFailed(ctx, step)
		log.Error().
			Err(err).
			Str("step", step).
			Msg("failed to score organization")
		result.Error = err.Error()
		return result, err
	}

	total := b.Total()
	result.HealthScore = &total
	result.Breakdown = &b

	e.metrics.RecordScored(ctx, total)
	e.publisher.PublishScoreUpdated(ctx, org, b, previous, now)

	log.Debug().
		Int("health_score", total).
		Int("activity", b.Activity).
		Int("logins", b.Logins).
		Int("tickets", b.Tickets).
		Msg("organization scored")

	return result, nil
}

func (e *Engine) score(ctx context.Context, org *domain.Organization, now time.Time) (domain.Breakdown, *int, string, error) {
	logins, err := e.profiles.CountRecentActiveLogins(ctx, org.ID, scoring.LoginWindowStart(now), now)
	if err != nil {
		return domain.Breakdown{}, nil, stepCountLogins, err
	}

	tickets, err := e.tickets.ListStatusesSince(ctx, org.ID, scoring.TicketWindowStart(now))
	if err != nil {
		return domain.Breakdown{}, nil, stepListTickets, err
	}

	b := scoring.Compute(org, domain.Facts{RecentLogins: logins, Tickets: tickets}, now)

	previous, err := e.orgs.UpdateHealthScore(ctx, org.ID, b.Total())
	if err != nil {
		return domain.Breakdown{}, nil, stepUpdateScore, err
	}

	return b, previous, "", nil
}
