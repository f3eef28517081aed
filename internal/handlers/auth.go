package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deeddraw/internal/auth"
	"deeddraw/internal/models"
	"deeddraw/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register creates an account and signs the user in
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.issueToken(c, http.StatusCreated, user)
}

// Login authenticates with email and password
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.issueToken(c, http.StatusOK, user)
}

func (h *AuthHandler) issueToken(c *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(status, gin.H{
		"success": true,
		"data": gin.H{
			"token": token,
			"user":  user,
		},
	})
}

// Logout handles user logout (stateless JWT, client-side only)
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully logged out",
	})
}

// GetMe returns the currently authenticated user's profile
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}
