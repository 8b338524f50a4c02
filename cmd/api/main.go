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

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/controller"
	"github.com/cassiomorais/cybersource-gateway/internal/cybersource"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/flex"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/hosted"
	"github.com/cassiomorais/cybersource-gateway/internal/infrastructure/observability"
	"github.com/cassiomorais/cybersource-gateway/internal/infrastructure/redis"
	"github.com/cassiomorais/cybersource-gateway/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("mode", cfg.Gateway.Mode).Msg("starting cybersource gateway")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracer("cybersource-gateway", cfg.Observability.JaegerEndpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("tracer shutdown failed")
			}
		}()
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	paymentRepo := postgres.NewPaymentRepository(pool)
	methodRepo := postgres.NewPaymentMethodRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	orderLog := postgres.NewOrderLogRepository(pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(pool)
	txManager := postgres.NewTxManager(pool)
	captureCtx := redis.NewCaptureContextStore(redisClient)

	apiClient, err := cybersource.NewClient(cfg.Gateway.Flex, cfg.Gateway.Mode)
	if err != nil {
		logger.Warn().Err(err).Msg("on-site payment API disabled")
	}

	hostedGateway := hosted.NewGateway(cfg.Gateway, paymentRepo, orderLog, logger)
	var flexGateway *flex.Gateway
	if apiClient != nil {
		flexGateway = flex.NewGateway(cfg.Gateway.Flex, apiClient, paymentRepo, methodRepo, orderLog, metrics, logger)
	}

	router := controller.NewRouter(controller.RouterDeps{
		Config:          cfg,
		Checkout:        controller.NewCheckoutController(hostedGateway, orderRepo, metrics, logger),
		Payments:        controller.NewPaymentController(cfg.Gateway.Flex, flexGateway, orderRepo, paymentRepo, methodRepo, txManager, captureCtx, logger),
		Health:          controller.NewHealthController(pool, redisClient),
		Metrics:         metrics,
		IdempotencyRepo: idempotencyRepo,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// Expired idempotency entries are cleaned up in-process rather than by
	// an external cron.
	group.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if n, err := idempotencyRepo.Cleanup(groupCtx); err != nil {
					logger.Warn().Err(err).Msg("idempotency cleanup failed")
				} else if n > 0 {
					logger.Info().Int64("removed", n).Msg("cleaned up idempotency keys")
				}
			}
		}
	})

	return group.Wait()
}
