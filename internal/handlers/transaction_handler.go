package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deeddraw/internal/auth"
	"deeddraw/internal/models"
	"deeddraw/internal/services"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
	logger             *zap.Logger
}

func NewTransactionHandler(transactionService *services.TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// SubmitTransaction registers a deal for points
// POST /api/transactions
func (h *TransactionHandler) SubmitTransaction(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	var req models.SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	txn, err := h.transactionService.Submit(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    txn,
	})
}

// QuoteTransaction prices points before submission
// GET /api/transactions/quote?points=2&code=ABC
func (h *TransactionHandler) QuoteTransaction(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	points, err := strconv.Atoi(c.Query("points"))
	if err != nil {
		badRequest(c, "points must be a whole number")
		return
	}

	quote, err := h.transactionService.PriceTransaction(c.Request.Context(), points, c.Query("code"), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}

// GetMyTransactions lists the caller's transactions
// GET /api/transactions/my
func (h *TransactionHandler) GetMyTransactions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	txns, err := h.transactionService.ListUserTransactions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txns,
	})
}

// GetMyTransaction returns one of the caller's transactions
// GET /api/transactions/:id
func (h *TransactionHandler) GetMyTransaction(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	txn, err := h.transactionService.GetUserTransaction(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txn,
	})
}
