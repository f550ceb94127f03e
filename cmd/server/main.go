// main wires stores, services, and the HTTP router, and owns the server
// lifecycle. Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"civitas/internal/audit"
	electionservice "civitas/internal/election/service"
	identityservice "civitas/internal/identity/service"
	"civitas/internal/integrity"
	"civitas/internal/integrity/handler"
	jwttoken "civitas/internal/jwt_token"
	ledgerservice "civitas/internal/ledger/service"
	"civitas/internal/platform/config"
	"civitas/internal/platform/httpserver"
	"civitas/internal/platform/logger"
	"civitas/internal/platform/metrics"
	platformredis "civitas/internal/platform/redis"
	rolesservice "civitas/internal/roles/service"
	"civitas/internal/tally"
	id "civitas/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	stores, cleanup, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sink, err := buildAuditSink(ctx, cfg)
	if err != nil {
		return err
	}
	if kafkaSink, ok := sink.(*audit.KafkaSink); ok {
		defer kafkaSink.Close()
	}
	// Publisher closes before the sink so buffered events drain.
	auditor := audit.NewPublisher(sink, audit.WithAsyncBuffer(cfg.AuditBuffer))
	defer auditor.Close()

	rolesSvc := rolesservice.New(stores.roles,
		rolesservice.WithAuditor(auditor),
		rolesservice.WithLogger(log),
	)
	authz := integrity.NewAuthority(rolesSvc)

	identitySvc := identityservice.New(stores.identity, authz,
		identityservice.WithAuditor(auditor),
		identityservice.WithMetrics(m),
		identityservice.WithLogger(log),
	)
	electionSvc := electionservice.New(stores.elections, authz,
		electionservice.WithAuditor(auditor),
		electionservice.WithMetrics(m),
		electionservice.WithLogger(log),
	)
	ledgerSvc := ledgerservice.New(stores.ledger, identitySvc, electionSvc, cfg.VoteHashSecret,
		ledgerservice.WithAuditor(auditor),
		ledgerservice.WithMetrics(m),
		ledgerservice.WithLogger(log),
	)

	tallyOpts := []tally.Option{
		tally.WithAuditor(auditor),
		tally.WithMetrics(m),
		tally.WithLogger(log),
	}
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		tallyOpts = append(tallyOpts, tally.WithCache(tally.NewRedisCache(redisClient)))
	}
	tallySvc := tally.New(ledgerSvc, electionSvc, authz, tallyOpts...)

	if cfg.SeedAdminUserID != "" {
		adminID, err := id.ParseUserID(cfg.SeedAdminUserID)
		if err != nil {
			return err
		}
		if err := rolesservice.SeedAdmin(ctx, stores.roles, adminID); err != nil {
			return err
		}
		log.Info("seeded admin role", "user_id", adminID)
	}

	svc := integrity.NewService(identitySvc, rolesSvc, electionSvc, ledgerSvc, tallySvc)
	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "civitas", "civitas-api")

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log, m, jwtSvc).Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
