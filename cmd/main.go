package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deeddraw/internal/auth"
	"deeddraw/internal/config"
	"deeddraw/internal/database"
	"deeddraw/internal/handlers"
	"deeddraw/internal/jobs"
	"deeddraw/internal/logger"
	"deeddraw/internal/repository"
	"deeddraw/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret, cfg.App.TokenTTL)

	// Connect to database
	db, err := database.Connect(cfg.Database.Driver, cfg.GetDSN(), zl)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.AutoMigrate(db, zl); err != nil {
		zl.Fatal("failed to run migrations", zap.Error(err))
	}

	repo := repository.NewRepository(db)

	// Initialize services
	notifier := services.NewLogNotifier(zl.Named("notifier"))
	authService := services.NewAuthService(repo, zl)
	userService := services.NewUserService(repo)
	transactionService := services.NewTransactionService(repo, notifier, zl)
	withdrawalService := services.NewWithdrawalService(repo, zl)
	referralService := services.NewReferralService(repo)
	reportService := services.NewReportService(repo)
	adminService := services.NewAdminService(repo, zl)

	if err := adminService.EnsureAdmin(context.Background(), cfg.App.AdminEmail); err != nil {
		zl.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	// Keep cached totals honest off the request path
	reconciler := jobs.NewTotalsReconciler(repo, zl.Named("reconciler"), cfg.App.ReconcileInterval)
	go reconciler.Start()

	allowedOrigins := []string{
		"http://localhost:3000", // Local development
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router := handlers.NewRouter(&handlers.Handlers{
		Auth:        handlers.NewAuthHandler(authService, zl),
		User:        handlers.NewUserHandler(userService, zl),
		Transaction: handlers.NewTransactionHandler(transactionService, zl),
		Withdrawal:  handlers.NewWithdrawalHandler(withdrawalService, zl),
		Referral:    handlers.NewReferralHandler(referralService, zl),
		Admin:       handlers.NewAdminHandler(adminService, transactionService, withdrawalService, reportService, zl),
		Public:      handlers.NewPublicHandler(reportService, zl),
	}, zl, handlers.RouterOptions{
		AllowedOrigins: allowedOrigins,
		ExposeMetrics:  cfg.Server.MetricsEnabled,
		AuthLimiter:    handlers.NewRateLimiter(cfg.Server.AuthRatePerMinute, cfg.Server.AuthBurst),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zl.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	reconciler.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server exited")
}
