// Package setup wires configuration, logging, redis, and the database
// into one App used by every entrypoint.
package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/mentorhub/repengine/internal/database"
	"github.com/mentorhub/repengine/internal/redis"
	"github.com/mentorhub/repengine/internal/setup/config"
	"github.com/mentorhub/repengine/internal/setup/telemetry"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// App bundles the shared dependencies of an entrypoint.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DBLogger *zap.Logger
	DB       database.Client

	redisManager *redis.Manager
}

// InitializeApp performs common setup tasks and returns an App.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	// Load configuration
	cfg, configPath, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logging
	telemetryManager := telemetry.NewManager(serviceType, logDir, &cfg.Debug)

	logger, dbLogger, err := telemetryManager.GetLoggers()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Initialize redis; the reputation read cache is optional, so a
	// failure here only disables it.
	redisManager := redis.NewManager(&cfg.Redis, logger)

	var cache rueidis.Client

	cache, err = redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		logger.Warn("Redis unavailable, reputation read cache disabled", zap.Error(err))

		cache = nil
	}

	// Initialize database connection
	db, err := database.NewConnection(ctx, cfg, cache, dbLogger, true)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Application initialized",
		zap.String("instanceID", telemetryManager.GetInstanceID()),
		zap.String("configPath", configPath))

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger,
		DB:           db,
		redisManager: redisManager,
	}, nil
}

// Cleanup releases the App's resources in reverse initialization order.
func (a *App) Cleanup(_ context.Context) {
	if err := a.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	a.redisManager.Close()

	if err := a.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := a.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}
}
