package main

import (
	"context" // Context for MongoDB operations
	"time"    // Timeouts

	"topup_system/internal/config"     // Custom import path (Config)
	"topup_system/internal/db"         // Custom import path (Database)
	"topup_system/internal/repository" // MongoDB indexes
	"topup_system/internal/utils"      // Logger setup

	"github.com/sirupsen/logrus"                // Logging
	"go.mongodb.org/mongo-driver/mongo"         // MongoDB driver
	"go.mongodb.org/mongo-driver/mongo/options" // MongoDB client options
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("configuration error: %v", err)
	}
	if err := utils.SetupLogger(cfg.LogLevel, cfg.IsProd); err != nil {
		logrus.Fatalf("logger setup failed: %v", err)
	}

	if cfg.DBDriver == config.DriverMongo {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logrus.Fatalf("failed to connect database: %v", err)
		}
		repo := repository.NewMongoRepository(client, cfg.MongoDB)
		defer repo.Close(context.Background())
		if err := repo.EnsureIndexes(ctx); err != nil {
			logrus.Fatalf("index creation failed: %v", err)
		}
		logrus.Info("Indexes ensured.")
		return
	}

	gdb, err := db.Open(cfg.DBDriver, cfg.SQLDSN(), cfg.IsProd) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
