package main

import (
	"context"   // Context for startup and shutdown
	"errors"    // Error inspection
	"fmt"       // Error wrapping
	"net/http"  // HTTP server
	"os"        // Directories and signals
	"os/signal" // Graceful shutdown
	"syscall"   // Termination signals
	"time"      // Timeouts

	"topup_system/internal/api"        // HTTP handlers and router
	"topup_system/internal/config"     // Configuration
	"topup_system/internal/db"         // SQL connection and migration
	"topup_system/internal/media"      // Slip storage
	"topup_system/internal/promptpay"  // QR generation
	"topup_system/internal/repository" // Persistence adapters
	"topup_system/internal/service"    // Business logic
	"topup_system/internal/utils"      // Logger setup

	"github.com/gin-gonic/gin"                  // Gin web framework
	"github.com/redis/go-redis/v9"              // Redis client
	"github.com/sirupsen/logrus"                // Logrus for structured logging
	"go.mongodb.org/mongo-driver/mongo"         // MongoDB driver
	"go.mongodb.org/mongo-driver/mongo/options" // MongoDB client options
	"golang.org/x/sync/errgroup"                // Server lifecycle
)

// store is a repository that can be released on shutdown
type store interface {
	service.Repository
	Close(ctx context.Context) error
}

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("configuration error: %v", err)
	}
	// Setup logger
	if err := utils.SetupLogger(cfg.LogLevel, cfg.IsProd); err != nil {
		logrus.Fatalf("logger setup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			logrus.WithError(err).Error("Closing store failed")
		}
	}()

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	slips, uploadDir, err := openSlipStore(cfg)
	if err != nil {
		logrus.Fatalf("slip storage setup failed: %v", err)
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		logrus.Fatalf("temp dir setup failed: %v", err)
	}

	svc := service.NewService(repo, slips, promptpay.NewGenerator(promptpay.MerchantID), rdb)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(svc, api.RouterConfig{TempDir: cfg.TempDir, UploadDir: uploadDir})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),   // Listen address
			"driver":  cfg.DBDriver, // Persistence backend
			"storage": cfg.Storage,  // Slip backend
			"cache":   rdb != nil,   // Redis enabled
		}).Info("Server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("Server stopped with error")
		return
	}
	logrus.Info("Server stopped")
}

// openStore connects the configured persistence backend and prepares its schema
func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	if cfg.DBDriver == config.DriverMongo {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		repo := repository.NewMongoRepository(client, cfg.MongoDB)
		if err := repo.EnsureIndexes(connectCtx); err != nil {
			_ = repo.Close(context.Background())
			return nil, err
		}
		return repo, nil
	}

	gdb, err := db.Open(cfg.DBDriver, cfg.SQLDSN(), cfg.IsProd)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}
	return repository.NewGormRepository(gdb), nil
}

// openRedis returns nil when caching is not configured
func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	// Setup Redis client
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	// Test Redis connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// openSlipStore returns the slip backend and, for local storage, the directory to serve
func openSlipStore(cfg *config.Config) (service.SlipStore, string, error) {
	if cfg.Storage == config.StorageCloudinary {
		s, err := media.NewCloudinaryStore(cfg.CloudName, cfg.CloudKey, cfg.CloudSec, cfg.CloudDir)
		return s, "", err
	}
	s, err := media.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, "", err
	}
	return s, s.Dir(), nil
}
