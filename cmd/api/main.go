package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/estatedesk-backend/api/middleware"
	"github.com/angelmondragon/estatedesk-backend/api/routes"
	"github.com/angelmondragon/estatedesk-backend/internal/activity"
	"github.com/angelmondragon/estatedesk-backend/internal/attachments"
	"github.com/angelmondragon/estatedesk-backend/internal/buildings"
	"github.com/angelmondragon/estatedesk-backend/internal/reservations"
	"github.com/angelmondragon/estatedesk-backend/internal/sales"
	"github.com/angelmondragon/estatedesk-backend/internal/transfer"
	"github.com/angelmondragon/estatedesk-backend/internal/units"
	"github.com/angelmondragon/estatedesk-backend/pkg/config"
	"github.com/angelmondragon/estatedesk-backend/pkg/db"
	"github.com/angelmondragon/estatedesk-backend/pkg/instance"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
	"github.com/angelmondragon/estatedesk-backend/pkg/metrics"
	"github.com/angelmondragon/estatedesk-backend/pkg/migrate"
	"github.com/angelmondragon/estatedesk-backend/pkg/redis"
	"github.com/angelmondragon/estatedesk-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	defer func() {
		closeErr := multierr.Combine(dbClient.Close(), redisClient.Close(), gcsClient.Close())
		if closeErr != nil {
			logg.Error(context.Background(), "error closing clients", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	saleMetrics := metrics.NewSaleMetrics(registry)

	saleService, deps, err := buildSaleService(cfg, logg, dbClient, redisClient, gcsClient, saleMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create sale service", err)
		os.Exit(1)
	}
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Storage = gcsClient
	deps.Idempotency = redisClient
	deps.Gatherer = registry
	deps.Sales = saleService

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.WithoutCancel(ctx), "api server stopped")
}

func buildSaleService(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	gcsClient *gcs.Client,
	saleMetrics *metrics.SaleMetrics,
) (*transfer.Service, routes.Deps, error) {
	conn := dbClient.DB()

	unitsRepo := units.NewRepository(conn)
	mutator, err := units.NewMutator(unitsRepo)
	if err != nil {
		return nil, routes.Deps{}, err
	}
	resolver, err := reservations.NewResolver(reservations.NewRepository(conn))
	if err != nil {
		return nil, routes.Deps{}, err
	}
	settler, err := reservations.NewSettler(reservations.NewRepository(conn))
	if err != nil {
		return nil, routes.Deps{}, err
	}
	recorder, err := sales.NewRecorder(sales.NewRepository(conn))
	if err != nil {
		return nil, routes.Deps{}, err
	}
	uploader, err := attachments.NewUploader(gcsClient)
	if err != nil {
		return nil, routes.Deps{}, err
	}
	activityLog, err := activity.NewLogger(activity.NewRepository(conn), logg)
	if err != nil {
		return nil, routes.Deps{}, err
	}
	compensation, err := transfer.NewActivityCompensation(activityLog, logg)
	if err != nil {
		return nil, routes.Deps{}, err
	}

	params := transfer.ServiceParams{
		Buildings:    buildings.NewRepository(conn),
		Units:        unitsRepo,
		Mutator:      mutator,
		Resolver:     resolver,
		Uploader:     uploader,
		Recorder:     recorder,
		Settler:      settler,
		Activity:     activityLog,
		Identity:     middleware.Identity{},
		Compensation: compensation,
		Metrics:      saleMetrics,
		Logger:       logg,
	}
	if cfg.FeatureFlags.UnitLock {
		locker, err := transfer.NewRedisLocker(redislock.New(redisClient.Raw()), redisClient, cfg.Sale.LockTTL)
		if err != nil {
			return nil, routes.Deps{}, err
		}
		params.Locker = locker
	}

	svc, err := transfer.NewService(params)
	if err != nil {
		return nil, routes.Deps{}, err
	}
	return svc, routes.Deps{Units: unitsRepo, Deposits: resolver}, nil
}
