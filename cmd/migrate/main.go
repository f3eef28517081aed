package main

import (
	"log"

	"go.uber.org/zap"

	"deeddraw/internal/config"
	"deeddraw/internal/database"
	"deeddraw/internal/logger"
)

// Applies the gorm model schema without starting the server
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Connect(cfg.Database.Driver, cfg.GetDSN(), zl)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.AutoMigrate(db, zl); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
}
