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

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/catalog"
	"storefront-checkout-demo/internal/client"
	"storefront-checkout-demo/internal/config"
	"storefront-checkout-demo/internal/handler"
	"storefront-checkout-demo/internal/logger"
	"storefront-checkout-demo/internal/metrics"
	"storefront-checkout-demo/internal/repository"
	"storefront-checkout-demo/internal/server"
	"storefront-checkout-demo/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, os.Stdout)
	log.WithFields(logrus.Fields{
		"environment": cfg.Environment.Name,
		"storage":     cfg.Storage.Driver,
		"provider":    cfg.Checkout.Provider,
	}).Info("starting storefront")

	ctx := context.Background()

	repo, closeRepo, err := newRepository(ctx, &cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("storage init failed")
	}
	defer closeRepo()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	provider := newProvider(cfg, log)
	sessions := service.NewSessionManager(repo, provider, service.CheckoutOptions{
		Currency:         cfg.Checkout.Currency,
		MerchantName:     cfg.Checkout.MerchantName,
		SimulatedLatency: cfg.Checkout.SimulatedLatency,
	}, service.SessionOptions{
		IdleTimeout: cfg.Checkout.SessionIdleTimeout,
		MaxSessions: cfg.Checkout.MaxSessions,
	}, log, recorder)
	settings := service.NewSettingsService(repo, cfg.Checkout.Currency, log)
	deposits := service.NewDepositService(client.NewRelayClient(&cfg.Relay), log)
	cat := catalog.New()

	// Init HTTP server
	srv := server.NewServer(log, registry, server.Handlers{
		Catalog:    handler.NewCatalogHandler(cat),
		Storefront: handler.NewStorefrontHandler(sessions, cat),
		Paypal:     handler.NewPaypalHandler(settings, sessions, cfg.Paypal, cfg.Checkout),
		Deposit:    handler.NewDepositHandler(deposits),
	})

	serverAddr := cfg.Addr()
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
	}
}

func newRepository(ctx context.Context, cfg *config.Storage) (repository.KVRepository, func(), error) {
	switch cfg.Driver {
	case "memory":
		return repository.NewMemoryRepository(), func() {}, nil
	case "redis":
		rdb, err := client.InitRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisRepository(rdb), func() { _ = rdb.Close() }, nil
	}

	db, err := client.InitDB(cfg.Driver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewKVRepository(db), func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

func newProvider(cfg *config.Config, log *logrus.Logger) service.PaymentProvider {
	switch cfg.Checkout.Provider {
	case "paypal":
		return client.NewPaypalClient(&cfg.Paypal, log)
	case "braintree":
		return client.NewBraintreeClient(&cfg.BrainTree, log)
	}
	return service.NewSimulator(logrus.NewEntry(log))
}
