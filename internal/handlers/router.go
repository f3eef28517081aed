package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"deeddraw/internal/auth"
)

// Handlers bundles every route group's handler
type Handlers struct {
	Auth        *AuthHandler
	User        *UserHandler
	Transaction *TransactionHandler
	Withdrawal  *WithdrawalHandler
	Referral    *ReferralHandler
	Admin       *AdminHandler
	Public      *PublicHandler
}

// RouterOptions carries the engine-level settings
type RouterOptions struct {
	// AllowedOrigins must not be empty
	AllowedOrigins []string
	ExposeMetrics  bool
	// AuthLimiter throttles the public auth endpoints; nil disables it
	AuthLimiter *RateLimiter
}

// NewRouter wires middleware and routes onto a gin engine
func NewRouter(h *Handlers, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(Metrics())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if opts.ExposeMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	if opts.AuthLimiter != nil {
		authRoutes.Use(opts.AuthLimiter.Middleware())
	}
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/logout", h.Auth.Logout)
	}

	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware(logger))
	{
		authProtected.GET("/me", h.Auth.GetMe)
	}

	// Public statistics
	public := router.Group("/api/public")
	{
		public.GET("/stats", h.Public.GetGlobalStats)
		public.GET("/leaderboard", h.Public.GetLeaderboard)
		public.GET("/search", h.Public.SearchParticipants)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware(logger))
	{
		api.GET("/users/stats", h.User.GetStats)
		api.GET("/users/profile", h.User.GetProfile)
		api.PUT("/users/profile", h.User.UpdateProfile)

		api.POST("/transactions", h.Transaction.SubmitTransaction)
		api.GET("/transactions/quote", h.Transaction.QuoteTransaction)
		api.GET("/transactions/my", h.Transaction.GetMyTransactions)
		api.GET("/transactions/:id", h.Transaction.GetMyTransaction)

		api.POST("/withdrawals", h.Withdrawal.RequestWithdrawal)
		api.GET("/withdrawals/balance", h.Withdrawal.GetBalance)
		api.GET("/withdrawals/my", h.Withdrawal.GetMyWithdrawals)

		api.GET("/referrals", h.Referral.GetReferrals)
		api.GET("/referrals/validate/:code", h.Referral.ValidateCode)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware(logger))
	admin.Use(h.Admin.AdminMiddleware())
	{
		admin.GET("/dashboard", h.Admin.GetDashboard)
		admin.GET("/logs", h.Admin.GetAdminLogs)

		admin.GET("/transactions", h.Admin.GetTransactions)
		admin.GET("/transactions/:id", h.Admin.GetTransaction)
		admin.PUT("/transactions/:id/approve", h.Admin.ApproveTransaction)
		admin.PUT("/transactions/:id/reject", h.Admin.RejectTransaction)

		admin.GET("/withdrawals", h.Admin.GetWithdrawals)
		admin.PUT("/withdrawals/:id/approve", h.Admin.ApproveWithdrawal)
		admin.PUT("/withdrawals/:id/reject", h.Admin.RejectWithdrawal)

		admin.GET("/users", h.Admin.GetUsers)
		admin.POST("/users/:id/promote", h.Admin.PromoteToAdmin)
		admin.GET("/export-participants", h.Admin.ExportParticipants)
	}

	return router
}
