// Package app wires config into stores, event publishing and services for
// the binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-pickup-inventory/internal/clock"
	"github.com/ariefcatur/go-pickup-inventory/internal/config"
	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
	kafkax "github.com/ariefcatur/go-pickup-inventory/internal/kafka"
	"github.com/ariefcatur/go-pickup-inventory/internal/memstore"
	"github.com/ariefcatur/go-pickup-inventory/internal/postgres"
	"github.com/ariefcatur/go-pickup-inventory/internal/redisx"
	"github.com/ariefcatur/go-pickup-inventory/migrations"
)

// Store is what the services need from a backend.
type Store interface {
	inventory.ProductStore
	inventory.CustomerStore
	inventory.DraftStore
	inventory.OrderStore
	inventory.OnlineOrderStore
}

type Services struct {
	Catalog    *inventory.Catalog
	Customers  *inventory.Customers
	Drafts     *inventory.DraftManager
	Finalizer  *inventory.Finalizer
	DirectSale *inventory.DirectSale
	Intake     *inventory.Intake
	Records    *inventory.OrderRecords
	Exporter   *inventory.Exporter
}

func NewServices(s Store, events inventory.EventPublisher, log *slog.Logger) Services {
	clk := clock.NewSystem()
	drafts := inventory.NewDraftManager(s, s, s, events, clk, log.With("component", "drafts"))
	return Services{
		Catalog:    inventory.NewCatalog(s, clk, log.With("component", "catalog")),
		Customers:  inventory.NewCustomers(s, clk),
		Drafts:     drafts,
		Finalizer:  inventory.NewFinalizer(s, s, s, events, clk, log.With("component", "finalizer")),
		DirectSale: inventory.NewDirectSale(s, s, s, events, clk, log.With("component", "direct_sale")),
		Intake:     inventory.NewIntake(s, s, s, drafts, events, clk, log.With("component", "intake")),
		Records:    inventory.NewOrderRecords(s, log.With("component", "orders")),
		Exporter:   inventory.NewExporter(s, s, s),
	}
}

// OpenStore returns the configured backend and a func that releases it.
// The postgres backend applies migrations first.
func OpenStore(ctx context.Context, cfg config.Config, log *slog.Logger) (Store, func(), error) {
	switch cfg.App.StoreBackend {
	case config.BackendMemory:
		log.Warn("using in-memory store; data is lost on exit")
		return memstore.New(), func() {}, nil
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := migrations.Apply(ctx, pool, log.With("component", "migrations")); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.NewStore(pool, cfg.Postgres.AdjustMaxRetries), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.App.StoreBackend)
}

// OpenRedis returns nil when no address is configured or Redis does not
// answer; callers then run without idempotency keys and the status cache.
func OpenRedis(ctx context.Context, cfg config.Config, log *slog.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redisx.New(cfg.Redis.Addr, cfg.Redis.Password)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, continuing without it", "addr", cfg.Redis.Addr, "err", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// OpenEvents starts a producer when brokers are configured. stop flushes
// and waits for it.
func OpenEvents(ctx context.Context, cfg config.Config, log *slog.Logger) (events inventory.EventPublisher, stop func()) {
	brokers := cfg.KafkaBrokers()
	if len(brokers) == 0 {
		log.Warn("no kafka brokers configured; events are dropped")
		return inventory.NopPublisher, func() {}
	}
	prod := kafkax.NewProducer(brokers, 1024, log.With("component", "producer"))
	prod.Start(ctx)
	return kafkax.NewPublisher(prod, cfg.App.Name), func() {
		prod.Close()
		prod.WaitClosed()
	}
}
