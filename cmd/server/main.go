// Command server runs the Utsav registration service: public registration,
// payment polling, ticket delivery, outreach intake, and the admin views.
// main wires dependencies from config and keeps the lifecycle small; business
// logic lives in the internal services.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminHandler "utsav/internal/admin"
	"utsav/internal/artifact"
	"utsav/internal/ledger"
	"utsav/internal/notify"
	outreachHandler "utsav/internal/outreach/handler"
	outreachService "utsav/internal/outreach/service"
	outreachStore "utsav/internal/outreach/store"
	"utsav/internal/payment"
	"utsav/internal/platform/config"
	"utsav/internal/platform/httpserver"
	"utsav/internal/platform/logger"
	"utsav/internal/platform/metrics"
	"utsav/internal/platform/middleware"
	"utsav/internal/platform/postgres"
	platformredis "utsav/internal/platform/redis"
	regHandler "utsav/internal/registration/handler"
	regMetrics "utsav/internal/registration/metrics"
	regService "utsav/internal/registration/service"
	regStore "utsav/internal/registration/store"
	"utsav/internal/registration/store/dispatchguard"
	audit "utsav/pkg/platform/audit"
	"utsav/pkg/platform/audit/publisher"
	auditmem "utsav/pkg/platform/audit/store/memory"
	auditpg "utsav/pkg/platform/audit/store/postgres"
	auditworker "utsav/pkg/platform/audit/worker"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Durable stores: postgres when configured, in-memory otherwise.
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres unavailable", "error", err.Error())
		os.Exit(1)
	}

	var (
		registrations regStore.Store
		messages      outreachStore.Store
		auditStore    audit.Store
	)
	if db != nil {
		pgRegistrations := regStore.NewPostgres(db)
		pgMessages := outreachStore.NewPostgres(db)
		pgAudit := auditpg.New(db)
		for name, ensure := range map[string]func(context.Context) error{
			"registrations": pgRegistrations.EnsureSchema,
			"outreach":      pgMessages.EnsureSchema,
			"audit outbox":  pgAudit.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				log.Error("schema setup failed", "schema", name, "error", err.Error())
				os.Exit(1)
			}
		}
		registrations = pgRegistrations
		messages = pgMessages
		auditStore = pgAudit

		// The Kafka worker only makes sense with the postgres outbox.
		if len(cfg.Kafka.Brokers) > 0 {
			kafkaClient, err := auditworker.NewClient(cfg.Kafka.Brokers)
			if err != nil {
				log.Error("kafka unavailable", "error", err.Error())
				os.Exit(1)
			}
			defer kafkaClient.Close()
			w := auditworker.New(pgAudit, kafkaClient, cfg.Kafka.Topic, cfg.Kafka.Poll, log)
			go func() {
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit outbox worker stopped", "error", err.Error())
				}
			}()
		}
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
		registrations = regStore.NewInMemory()
		messages = outreachStore.NewInMemory()
		auditStore = auditmem.NewInMemoryStore()
	}

	// Dispatch guard: redis when configured, in-process otherwise.
	var guard dispatchguard.Guard = dispatchguard.NewInMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		guard = dispatchguard.NewRedis(redisClient.Client)
	}

	renderer, err := artifact.NewRenderer(cfg.Artifact.TemplatePath)
	if err != nil {
		log.Error("ticket template unusable", "error", err.Error())
		os.Exit(1)
	}
	blobs, err := artifact.NewFSStore(cfg.Artifact.Dir)
	if err != nil {
		log.Error("artifact dir unusable", "error", err.Error())
		os.Exit(1)
	}
	uploads, err := artifact.NewFSStore(cfg.Artifact.UploadsDir)
	if err != nil {
		log.Error("uploads dir unusable", "error", err.Error())
		os.Exit(1)
	}

	auditPub := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)
	defer auditPub.Close()

	platformMetrics := metrics.New()
	pipelineMetrics := regMetrics.New()

	regSvc := regService.New(
		registrations,
		payment.NewHTTPGateway(cfg.Gateway),
		renderer, blobs, uploads,
		notify.NewHTTPNotifier(cfg.Mail),
		ledger.NewHTTPLedger(cfg.Ledger),
		guard,
		auditPub,
		pipelineMetrics,
		log,
		regService.Config{
			SheetName:      cfg.Ledger.SheetName,
			OperatorAddr:   cfg.Mail.OperatorAddr,
			StatusCacheTTL: cfg.Gateway.StatusCacheTTL,
			PollInterval:   cfg.Poll.Interval,
			MaxPollRounds:  cfg.Poll.MaxAttempts,
		},
	)
	outreachSvc := outreachService.New(messages, notify.NewHTTPNotifier(cfg.Mail), auditPub, log, cfg.Mail.OperatorAddr)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(platformMetrics))

	regHandler.New(regSvc, log).Register(router)
	outreachHandler.New(outreachSvc, log).Register(router)
	adminHandler.New(regSvc, outreachSvc, log, cfg.AdminJWTSigningKey).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(db, redisClient))

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting utsav server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
	if db != nil {
		_ = db.Close()
	}
}

// healthz reports liveness plus the health of configured backends.
func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
