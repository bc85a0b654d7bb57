package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/cache"
	"github.com/foxxcyber/smart-pantry/internal/config"
	"github.com/foxxcyber/smart-pantry/internal/database"
	"github.com/foxxcyber/smart-pantry/internal/handlers"
	"github.com/foxxcyber/smart-pantry/internal/logging"
	"github.com/foxxcyber/smart-pantry/internal/middleware"
	"github.com/foxxcyber/smart-pantry/internal/pantry"
	"github.com/foxxcyber/smart-pantry/internal/services"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	categories := shopping.DefaultCategories()
	if cfg.CategoriesFile != "" {
		table, err := shopping.LoadCategories(cfg.CategoriesFile)
		if err != nil {
			return err
		}
		categories = table
		logger.Info("Loaded category table", zap.String("file", cfg.CategoriesFile), zap.Int("categories", len(table)))
	}

	store, err := cache.Open(ctx, cfg.CacheDriver, cfg.CachePath, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Cache ready", zap.String("driver", cfg.CacheDriver))

	newBackend := func(token string) services.TokenBackend {
		return pantry.NewClient(cfg.BackendURL, token,
			pantry.WithTimeout(cfg.BackendTimeout),
			pantry.WithLogger(logger.Named("pantry")))
	}
	sessions := services.NewSessionManager(newBackend, store, shopping.Options{
		Categories:         categories,
		PlaceholderOnEmpty: cfg.PlaceholderOnEmpty,
	}, cfg.SessionTTL, logger.Named("sessions"))
	go sessions.Run(ctx, time.Minute)

	// Export storage is optional
	var exporter handlers.Exporter
	if cfg.StorageEnabled() {
		storageService, err := services.NewStorageService(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL, cfg.ExportURLExpiry)
		if err != nil {
			logger.Warn("Failed to initialize storage service, export disabled", zap.Error(err))
		} else {
			if err := storageService.EnsureBucket(ctx); err != nil {
				logger.Warn("Failed to ensure S3 bucket exists", zap.Error(err))
			}
			exporter = storageService
			logger.Info("Export storage initialized", zap.String("bucket", cfg.S3Bucket))
		}
	}

	var exportLog handlers.ExportLog
	if store.DB != nil {
		exportLog = store.DB
		go purgeCache(ctx, store.DB, cfg.CacheRetention, logger)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:request_id}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h := handlers.New(sessions, exporter, exportLog, logger.Named("http"))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": sessions.Len()})
	})

	api := app.Group("/api")
	handlers.RegisterRoutes(api, h, middleware.AuthRequired(cfg))

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("Shutdown error", zap.Error(err))
		}
	}()

	logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("backend", cfg.BackendURL))
	return app.Listen(":" + cfg.Port)
}

// purgeCache drops shared cache entries nobody has written to within
// retention, once at startup and then hourly.
func purgeCache(ctx context.Context, db *database.DB, retention time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		n, err := db.PurgeCache(ctx, time.Now().Add(-retention))
		if err != nil && ctx.Err() == nil {
			logger.Warn("Cache purge failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("Purged stale cache entries", zap.Int64("count", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
