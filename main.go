package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/config"
	"github.com/labelforge/labelforge-engine/pkg/database"
	"github.com/labelforge/labelforge-engine/pkg/handlers"
	"github.com/labelforge/labelforge-engine/pkg/middleware"
	"github.com/labelforge/labelforge-engine/pkg/repositories"
	"github.com/labelforge/labelforge-engine/pkg/services"
	"github.com/labelforge/labelforge-engine/pkg/services/jobqueue"
	"github.com/labelforge/labelforge-engine/pkg/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Host),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("storage", cfg.Storage.Endpoint),
		zap.Int("export_workers", cfg.Export.Workers))

	ctx := context.Background()

	// Migrations run over database/sql; the service itself uses the pgx pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	store, err := storage.NewMinioStore(ctx, &cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to connect to object storage", zap.Error(err))
	}

	var tracker jobqueue.Tracker
	var urls services.URLCache
	if redisClient != nil {
		tracker = jobqueue.NewRedisTracker(redisClient, cfg.Export.JobRetention())
		urls = services.NewRedisURLCache(redisClient, store,
			cfg.Export.SignedURLTTL(), cfg.Export.URLCacheTTL(), logger)
	} else {
		logger.Warn("Redis not configured, using in-process job tracking and direct URL signing")
		tracker = jobqueue.NewMemoryTracker()
		urls = services.NewPassthroughURLCache(store, cfg.Export.SignedURLTTL())
	}

	queue := jobqueue.NewQueue(tracker, cfg.Export.Workers, logger)

	projectRepo := repositories.NewProjectRepository(db)
	imageRepo := repositories.NewImageRepository(db)
	annotationRepo := repositories.NewAnnotationRepository(db)
	datasetRepo := repositories.NewDatasetRepository(db)

	datasetService := services.NewDatasetService(
		projectRepo, imageRepo, annotationRepo, datasetRepo,
		store, urls, queue, cfg.Export.SignedURLTTL(), logger)
	imageService := services.NewImageService(imageRepo, store, urls, queue, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDatasetsHandler(datasetService, logger).RegisterRoutes(mux)
	handlers.NewImagesHandler(imageService, logger).RegisterRoutes(mux)
	handlers.NewJobsHandler(queue, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting labelforge-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", zap.Error(err))
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Job queue shutdown incomplete, in-flight jobs cancelled", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
