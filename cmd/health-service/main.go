package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/itamcloud/itam-backend/internal/auth"
	"github.com/itamcloud/itam-backend/internal/auth/jwt"
	"github.com/itamcloud/itam-backend/internal/healthscore/consumers"
	"github.com/itamcloud/itam-backend/internal/healthscore/events"
	"github.com/itamcloud/itam-backend/internal/healthscore/handler"
	"github.com/itamcloud/itam-backend/internal/healthscore/repository"
	"github.com/itamcloud/itam-backend/internal/healthscore/service"
	"github.com/itamcloud/itam-backend/internal/telemetry"
	"github.com/itamcloud/itam-backend/pkg/clock"
	"github.com/itamcloud/itam-backend/pkg/config"
	"github.com/itamcloud/itam-backend/pkg/database"
	"github.com/itamcloud/itam-backend/pkg/httputil"
	"github.com/itamcloud/itam-backend/pkg/logger"
	"github.com/itamcloud/itam-backend/pkg/messaging"
)

const serviceName = "health-service"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Health Score Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metrics := telemetry.GetMetrics()

	orgRepo := repository.NewOrganizationRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	// RabbitMQ is optional: without it scores are still written, just not announced
	var rmq *messaging.RabbitMQ
	publisher := events.NewNoop()
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, serviceName, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewHealthScorePublisher(rmq, metrics, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	engine := service.NewEngine(
		orgRepo,
		profileRepo,
		ticketRepo,
		clock.System{},
		publisher,
		metrics,
		cfg.Scoring.Concurrency,
		log,
	)

	if rmq != nil {
		startConsumer := func() error {
			if err := rmq.DeclareExchange(messaging.ExchangeOrganizationEvents); err != nil {
				return err
			}
			consumer, err := consumers.NewScoreRequestConsumer(rmq, engine, log)
			if err != nil {
				return err
			}
			return consumer.Start(ctx)
		}
		if err := startConsumer(); err != nil {
			log.Fatal().Err(err).Msg("failed to start score request consumer")
		}
		go rmq.Watch(ctx, startConsumer)
	}

	var scheduler *service.PassScheduler
	if cfg.Scoring.Interval > 0 {
		scheduler = service.NewPassScheduler(engine, cfg.Scoring.Interval, log)
		scheduler.Start(ctx)
	} else {
		log.Info().Msg("scheduled passes disabled")
	}

	jwtManager := jwt.NewManager(&cfg.JWT)
	healthScoreHandler := handler.NewHealthScoreHandler(engine, log)
	limiter := httputil.NewRateLimiter(httputil.CallerKey, cfg.Server.TriggerRate, cfg.Server.TriggerBurst)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Client-Info", "Apikey"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	healthScoreHandler.Mount(r,
		auth.Authenticate(jwtManager, log),
		limiter.Middleware,
		auth.RequireRole(profileRepo, cfg.Scoring.SuperAdminRole, log),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stop()
	if scheduler != nil {
		scheduler.Stop()
	}

	log.Info().Msg("server stopped")
}
