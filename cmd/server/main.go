package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gavel/internal/account/cache"
	accounthandler "gavel/internal/account/handler"
	accountservice "gavel/internal/account/service"
	accountstore "gavel/internal/account/store"
	"gavel/internal/audit"
	"gavel/internal/authz"
	"gavel/internal/idp"
	kychandler "gavel/internal/kyc/handler"
	kycservice "gavel/internal/kyc/service"
	kycstore "gavel/internal/kyc/store"
	"gavel/internal/platform/config"
	"gavel/internal/platform/httpserver"
	"gavel/internal/platform/logger"
	"gavel/internal/platform/metrics"
	"gavel/internal/platform/middleware"
	"gavel/internal/platform/redis"
	"gavel/pkg/platform/tx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m := metrics.New()

	// Stores: Postgres when configured, in-memory for dev runs.
	var (
		accounts    accountservice.AccountStore
		submissions kycstore.Store
		auditStore  audit.Store
		txRunner    tx.Runner = tx.NewSerialRunner()
	)
	if cfg.Store.PostgresURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Store.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		auditDB, err := audit.OpenPostgres(cfg.Store.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect audit store: %w", err)
		}
		defer auditDB.Close()

		accounts = accountstore.NewPostgres(pool)
		submissions = kycstore.NewPostgres(pool)
		auditStore = audit.NewPostgresStore(auditDB)
		txRunner = tx.NewPgxRunner(pool)
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
		accounts = accountstore.NewInMemory()
		submissions = kycstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
	}

	var auditSink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
	}
	auditor := audit.NewPublisher(auditStore, auditSink, log)

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	gate := authz.NewCapabilityAuthorizer()

	accountOpts := []accountservice.Option{
		accountservice.WithLogger(log),
		accountservice.WithMetrics(m),
		accountservice.WithAudit(auditor),
		accountservice.WithCache(cache.NewViewCache(redisClient)),
		accountservice.WithSyncTimeout(cfg.IdP.Timeout),
	}
	if cfg.IdP.Configured() {
		idpClient, err := idp.New(cfg.IdP)
		if err != nil {
			return fmt.Errorf("configure idp client: %w", err)
		}
		accountOpts = append(accountOpts, accountservice.WithIdentitySync(idpClient))
	} else {
		log.Warn("IDP_DOMAIN not set, moderation will not sync to an identity provider")
	}

	accountSvc := accountservice.New(gate, accounts, accountOpts...)
	kycSvc := kycservice.New(gate, submissions, accounts,
		kycservice.WithLogger(log),
		kycservice.WithMetrics(m),
		kycservice.WithAudit(auditor),
		kycservice.WithTxRunner(txRunner),
	)

	validator := middleware.NewHMACValidator(cfg.Server.JWTSigningKey)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.LatencyMiddleware(m))
	r.Use(middleware.Timeout(cfg.Store.Timeout + cfg.IdP.Timeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, log))
		kychandler.New(kycSvc, log).Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(cfg.Server.AdminToken, log))
			accounthandler.New(accountSvc, log).Register(r)
		})
	})

	srv := httpserver.New(cfg.Server.Addr, r)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
