package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-pickup-inventory/internal/app"
	"github.com/ariefcatur/go-pickup-inventory/internal/config"
	"github.com/ariefcatur/go-pickup-inventory/internal/httpx"
	"github.com/ariefcatur/go-pickup-inventory/internal/logging"
	"github.com/ariefcatur/go-pickup-inventory/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logging.Base().Error("config", "err", err)
		os.Exit(1)
	}
	log := logging.Init(cfg.App.Name, cfg.App.LogFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error("store", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	events, stopEvents := app.OpenEvents(ctx, cfg, log)
	svc := app.NewServices(store, events, log)

	deps := httpx.Deps{
		Catalog:    svc.Catalog,
		Customers:  svc.Customers,
		Drafts:     svc.Drafts,
		Finalizer:  svc.Finalizer,
		DirectSale: svc.DirectSale,
		Intake:     svc.Intake,
		Records:    svc.Records,
		Exporter:   svc.Exporter,
		Log:        log,
	}
	if rdb := app.OpenRedis(ctx, cfg, log); rdb != nil {
		defer rdb.Close()
		deps.Idempotency = redisx.NewIdempotency(rdb, redisx.TTLIdempotency)
		deps.Cache = redisx.NewStatusCache(rdb, redisx.TTLStatusCache)
	}

	router := httpx.NewRouter(log, cfg.HTTP.RequestTimeout)
	httpx.NewAPI(deps).Register(router)

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("http listening", "addr", cfg.App.HTTPAddr, "backend", cfg.App.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	stopEvents()
}
