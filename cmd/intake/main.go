package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-pickup-inventory/internal/app"
	"github.com/ariefcatur/go-pickup-inventory/internal/config"
	"github.com/ariefcatur/go-pickup-inventory/internal/intake"
	kafkax "github.com/ariefcatur/go-pickup-inventory/internal/kafka"
	"github.com/ariefcatur/go-pickup-inventory/internal/logging"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
	"github.com/ariefcatur/go-pickup-inventory/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logging.Base().Error("config", "err", err)
		os.Exit(1)
	}
	service := cfg.App.Name + "-intake"
	log := logging.Init(service, cfg.App.LogFile)

	brokers := cfg.KafkaBrokers()
	if len(brokers) == 0 {
		log.Error("intake needs kafka.brokers")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error("store", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	rdb := app.OpenRedis(ctx, cfg, log)
	if rdb == nil {
		log.Error("intake needs redis for event dedup")
		os.Exit(1)
	}
	defer rdb.Close()

	events, stopEvents := app.OpenEvents(ctx, cfg, log)
	svc := app.NewServices(store, events, log)

	worker := intake.NewWorker(svc.Intake,
		redisx.NewDedup(rdb, service),
		redisx.NewIdempotency(rdb, redisx.TTLIdempotency),
		log.With("component", "worker"))
	cons := kafkax.NewConsumer(brokers, cfg.Intake.Group, orders.TopicOnlineRequested, cfg.Intake.Workers,
		log.With("component", "consumer"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("intake consumer started", "group", cfg.Intake.Group, "topic", orders.TopicOnlineRequested, "workers", cfg.Intake.Workers)
		if err := cons.Start(ctx, worker.Handle); err != nil {
			log.Error("consumer exit", "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	<-done
	stopEvents()
}
