package main

import (
	"context"

	"civitas/internal/audit"
	electionservice "civitas/internal/election/service"
	electionstore "civitas/internal/election/store"
	identityservice "civitas/internal/identity/service"
	identitystore "civitas/internal/identity/store"
	ledgerservice "civitas/internal/ledger/service"
	ledgerstore "civitas/internal/ledger/store"
	"civitas/internal/platform/config"
	"civitas/internal/platform/postgres"
	rolesservice "civitas/internal/roles/service"
	rolesstore "civitas/internal/roles/store"
)

// stores groups the persistence ports each service consumes. One postgres
// connection backs all of them, or everything runs in memory when no URL is
// configured.
type stores struct {
	identity  identityservice.Store
	roles     rolesservice.Store
	elections electionservice.Store
	ledger    ledgerservice.Store
}

func buildStores(cfg config.Config) (stores, func(), error) {
	if cfg.PostgresURL == "" {
		return stores{
			identity:  identitystore.NewInMemory(),
			roles:     rolesstore.NewInMemory(),
			elections: electionstore.NewInMemory(),
			ledger:    ledgerstore.NewInMemory(),
		}, func() {}, nil
	}

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		return stores{}, nil, err
	}
	if err := postgres.CreateSchema(db); err != nil {
		db.Close()
		return stores{}, nil, err
	}
	return stores{
		identity:  identitystore.NewPostgres(db),
		roles:     rolesstore.NewPostgres(db),
		elections: electionstore.NewPostgres(db),
		ledger:    ledgerstore.NewPostgres(db),
	}, func() { db.Close() }, nil
}

// buildAuditSink prefers kafka when brokers are configured; the in-process
// store is the fallback so audit events are never silently discarded.
func buildAuditSink(ctx context.Context, cfg config.Config) (audit.Sink, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewInMemoryStore(), nil
	}
	return audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
}
