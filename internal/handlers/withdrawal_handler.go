package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deeddraw/internal/auth"
	"deeddraw/internal/models"
	"deeddraw/internal/services"
)

type WithdrawalHandler struct {
	withdrawalService *services.WithdrawalService
	logger            *zap.Logger
}

func NewWithdrawalHandler(withdrawalService *services.WithdrawalService, logger *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
		logger:            logger,
	}
}

// RequestWithdrawal reserves referral earnings for payout
// POST /api/withdrawals
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	var req models.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	withdrawal, err := h.withdrawalService.RequestWithdrawal(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Withdrawal request submitted",
		"data":    withdrawal,
	})
}

// GetBalance returns the caller's withdrawable balance
// GET /api/withdrawals/balance
func (h *WithdrawalHandler) GetBalance(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	balance, err := h.withdrawalService.AvailableBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    balance,
	})
}

// GetMyWithdrawals lists the caller's requests
// GET /api/withdrawals/my
func (h *WithdrawalHandler) GetMyWithdrawals(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	ws, err := h.withdrawalService.ListUserWithdrawals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ws,
	})
}
