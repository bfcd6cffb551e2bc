package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/internal/healthscore/events"
	"github.com/itamcloud/itam-backend/internal/healthscore/repository"
	"github.com/itamcloud/itam-backend/internal/healthscore/service"
	"github.com/itamcloud/itam-backend/internal/telemetry"
	"github.com/itamcloud/itam-backend/pkg/clock"
	"github.com/itamcloud/itam-backend/pkg/config"
	"github.com/itamcloud/itam-backend/pkg/database"
	"github.com/itamcloud/itam-backend/pkg/logger"
	"github.com/itamcloud/itam-backend/pkg/messaging"
	"github.com/rs/zerolog"
)

// configName is shared with the service so both read the same file
const configName = "health-service"

// Engine is the part of the scoring engine the commands drive
type Engine interface {
	RunPass(ctx context.Context) (*domain.Report, error)
	ScoreOrganization(ctx context.Context, id string) (*domain.ScoreResult, error)
}

type Globals struct {
	Debug   bool
	Version string
	Out     io.Writer

	// open replaces openEngine when set
	open func() (Engine, func(), error)
}

func (g *Globals) engine() (Engine, func(), error) {
	if g.open != nil {
		return g.open()
	}
	engine, cleanup, err := g.openEngine()
	if err != nil {
		return nil, nil, err
	}
	return engine, cleanup, nil
}

func (g *Globals) logger(environment string) *logger.Logger {
	var out io.Writer = os.Stderr
	if environment == config.EnvDevelopment {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	log := logger.NewWithWriter("healthctl", out)

	level := zerolog.InfoLevel
	if g.Debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Logger.Level(level)
	return log
}

func (g *Globals) printJSON(v interface{}) error {
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openEngine wires an engine against the configured database. The returned
// func releases every connection it opened.
func (g *Globals) openEngine() (*service.Engine, func(), error) {
	cfg, err := config.LoadWithValidation(configName)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	log := g.logger(cfg.Server.Environment)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { db.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	metrics := telemetry.GetMetrics()
	publisher := events.NewNoop()
	if cfg.RabbitMQ.Enabled {
		rmq, err := messaging.New(&cfg.RabbitMQ, "healthctl", log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { rmq.Close() })

		publisher, err = events.NewHealthScorePublisher(rmq, metrics, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	engine := service.NewEngine(
		repository.NewOrganizationRepository(db),
		repository.NewProfileRepository(db),
		repository.NewTicketRepository(db),
		clock.System{},
		publisher,
		metrics,
		cfg.Scoring.Concurrency,
		log,
	)

	return engine, cleanup, nil
}

func cliContext(ctx context.Context) context.Context {
	return service.WithTrigger(ctx, service.TriggerCLI)
}
