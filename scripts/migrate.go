package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Applies migrations/*.sql in name order, recording each one in
// schema_migrations so reruns skip what is already applied.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		logger.Fatal("failed to create schema_migrations", zap.Error(err))
	}

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		logger.Fatal("failed to list migrations", zap.Error(err))
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		name := filepath.Base(file)

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&exists); err != nil {
			logger.Fatal("failed to check migration", zap.String("file", name), zap.Error(err))
		}
		if exists {
			continue
		}

		body, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal("failed to read migration", zap.String("file", name), zap.Error(err))
		}

		if err := apply(db, name, string(body)); err != nil {
			logger.Fatal("failed to apply migration", zap.String("file", name), zap.Error(err))
		}
		logger.Info("migration applied", zap.String("file", name))
		applied++
	}

	logger.Info("migrations complete", zap.Int("applied", applied))
}

func apply(db *sql.DB, name, body string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(body); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
