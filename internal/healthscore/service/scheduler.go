package service

import (
	"context"
	"time"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/pkg/logger"
)

// PassRunner runs one full scoring pass
type PassRunner interface {
	RunPass(ctx context.Context) (*domain.Report, error)
}

// PassScheduler runs scoring passes periodically.
type PassScheduler struct {
	runner   PassRunner
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPassScheduler creates a new pass scheduler
func NewPassScheduler(runner PassRunner, interval time.Duration, log *logger.Logger) *PassScheduler {
	return &PassScheduler{
		runner:   runner,
		interval: interval,
		logger:   log.WithComponent("pass_scheduler"),
	}
}

// Start starts the scheduler in a background goroutine.
// The first pass runs immediately, then one per interval.
func (s *PassScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("health score scheduler started")

		s.runCycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("health score scheduler stopped")
				return
			case <-ticker.C:
				s.runCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler and waits for the running cycle to return
func (s *PassScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *PassScheduler) runCycle(ctx context.Context) {
	if _, err := s.runner.RunPass(WithTrigger(ctx, TriggerScheduler)); err != nil {
		s.logger.Error().Err(err).Msg("scheduled health score pass failed")
	}
}
