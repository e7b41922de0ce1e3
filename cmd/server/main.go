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

	"github.com/acronis/go-appkit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/http/handlers"
	httpMiddleware "github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/http/middleware"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/http/router"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/metrics"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/bootstrap"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/config"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLogger := bootstrap.NewLogger(cfg.Log)
	defer closeLogger()

	storage, closeStorage, err := bootstrap.NewStorage(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	defer closeStorage()

	opts := []services.Option{services.WithLogger(logger)}

	var gatherer prometheus.Gatherer
	if cfg.Server.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector := metrics.NewCollector("ratelimiter")
		collector.MustRegister(registry)
		opts = append(opts, services.WithDecisionRecorder(collector))
		gatherer = registry
	}

	limiter, err := bootstrap.NewLimiter(cfg.RateLimiter.Strategy, storage, opts...)
	if err != nil {
		return fmt.Errorf("failed to create limiter: %w", err)
	}
	overrides, err := services.NewOverrideResolver(storage, opts...)
	if err != nil {
		return fmt.Errorf("failed to create override resolver: %w", err)
	}
	limiters, err := bootstrap.NewRateLimiterServices(cfg.RateLimiter, limiter, overrides, opts...)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter services: %w", err)
	}

	var authenticator httpMiddleware.Authenticator = httpMiddleware.BearerAuthenticator{}
	if cfg.Auth.JWTSecret != "" {
		if authenticator, err = httpMiddleware.NewJWTAuthenticator(cfg.Auth.JWTSecret); err != nil {
			return fmt.Errorf("failed to create authenticator: %w", err)
		}
	}

	endpoints := make([]router.Endpoint, 0, len(limiters))
	for _, svc := range limiters {
		endpoints = append(endpoints, router.Endpoint{Pattern: svc.Endpoint(), Limiter: svc, Handler: handlers.TestHandler})
		logger.Info("rate limited endpoint registered",
			log.String("endpoint", svc.Endpoint()), log.String("strategy", string(svc.Strategy())))
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router.New(router.Params{
			Endpoints:         endpoints,
			Authenticator:     authenticator,
			TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
			Gatherer:          gatherer,
			Logger:            logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", log.String("address", srv.Addr),
			log.String("storage", cfg.Storage.Type), log.String("failure_policy", string(cfg.RateLimiter.FailurePolicy)))
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", log.Error(err))
	}
	return nil
}
