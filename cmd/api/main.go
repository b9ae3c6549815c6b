package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/tomasarrieta/shopwindow/api"
	"github.com/tomasarrieta/shopwindow/api/controllers"
	"github.com/tomasarrieta/shopwindow/api/routes"
	"github.com/tomasarrieta/shopwindow/internal/catalog"
	"github.com/tomasarrieta/shopwindow/pkg/config"
	"github.com/tomasarrieta/shopwindow/pkg/logger"
	"github.com/tomasarrieta/shopwindow/pkg/metrics"
	"github.com/tomasarrieta/shopwindow/pkg/redis"
)

const shutdownGrace = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	catalogClient, err := catalog.NewClient(cfg.Catalog, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog client", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, category cache disabled")
	}

	categoryCache := catalog.NewCategoryCache(catalogClient, redisClient, cfg.Cache.CategoriesTTL, logg)

	registry := prometheus.NewRegistry()
	browseMetrics := metrics.NewBrowseMetrics(registry)

	pingers := map[string]controllers.Pinger{"catalog": catalogClient}
	if redisClient != nil {
		pingers["redis"] = redisClient
	}

	router := routes.NewRouter(cfg, logg, routes.Deps{
		Products:   catalogClient,
		Categories: categoryCache,
		Pingers:    pingers,
		Metrics:    browseMetrics,
		Registry:   registry,
	})

	server := api.NewServer(cfg, router)

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(ctx, "starting browse gateway")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "gateway stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		var closeErr error
		closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
		if redisClient != nil {
			closeErr = multierr.Append(closeErr, redisClient.Close())
		}
		if closeErr != nil {
			logg.Error(ctx, "shutdown finished with errors", closeErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
