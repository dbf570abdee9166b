package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cellclassify/docs"
	"cellclassify/internal/config"
	"cellclassify/internal/database"
	"cellclassify/internal/database/migration"
	handlers "cellclassify/internal/http/handler"
	"cellclassify/internal/http/middleware"
	"cellclassify/internal/logging"
	"cellclassify/internal/metrics"
	"cellclassify/internal/ml"
	"cellclassify/internal/otel"
	"cellclassify/internal/repository"
	"cellclassify/internal/repository/blob"
	"cellclassify/internal/repository/postgres"
	"cellclassify/internal/service"
	"cellclassify/internal/storage"
)

const (
	shutdownTimeout = 15 * time.Second
	// multipartOverhead leaves room for form boundaries and headers around the file.
	multipartOverhead = 1 << 20
)

// @title Cell Classification API
// @version 1.0
// @description Upload single-cell measurement tables and compare ICM/TE classifiers.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, logging.Location(cfg.Timezone))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	store, err := newStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	repo, closeRepo, err := newResultRepository(ctx, cfg, store, log)
	if err != nil {
		return fmt.Errorf("init result repository: %w", err)
	}
	defer closeRepo()

	m, err := metrics.NewAnalysis(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register analysis metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	datasets := service.NewDatasetService(store, cfg.MaxUploadBytes, log, m)
	analyses := service.NewAnalysisService(datasets, repo, ml.Options{
		Seed:         cfg.Analysis.Seed,
		MaxSamples:   cfg.Analysis.MaxSamples,
		MaxFeatures:  cfg.Analysis.MaxFeatures,
		PositiveRate: cfg.Analysis.PositiveRate,
		TestSize:     cfg.Analysis.TestSize,
	}, log, m)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.MaxUploadBytes) + multipartOverhead,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	// A panicking request becomes a 500 envelope through ErrorHandler.
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			log.Error("panic recovered",
				zap.String("request_id", middleware.RequestIDFrom(c)),
				zap.String("path", c.Path()),
				zap.Any("panic", e),
				zap.Stack("stack"),
			)
		},
	}))
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, handlers.Services{
		Datasets: datasets,
		Analyses: analyses,
		Health:   []handlers.Pinger{store, repo},
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("server starting",
			zap.String("addr", addr),
			zap.String("storage_backend", cfg.Storage.Backend),
			zap.String("result_store", cfg.ResultStore),
		)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(sctx)
}

func newStorage(c config.StorageConfig) (storage.Storage, error) {
	switch c.Backend {
	case "local":
		return storage.NewLocal(c.DataDir)
	case "minio":
		return storage.NewMinIO(c.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}

func newResultRepository(ctx context.Context, cfg *config.AppConfig, store storage.Storage, log *zap.Logger) (repository.ResultRepository, func(), error) {
	switch cfg.ResultStore {
	case "blob":
		return blob.NewResultBlob(store), func() {}, nil
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewResultPostgres(db), func() { db.Close() }, nil
	default:
		return nil, nil, errors.New("RESULT_STORE must be blob or postgres")
	}
}
