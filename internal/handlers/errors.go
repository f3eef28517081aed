package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"deeddraw/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError maps service errors to HTTP responses. Unexpected errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var stateErr *services.InvalidStateTransitionError
	var balanceErr *services.InsufficientBalanceError

	switch {
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{
			"success":        false,
			"error":          stateErr.Error(),
			"current_status": stateErr.Current,
		})
	case errors.As(err, &balanceErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "Insufficient balance",
			"available": balanceErr.Available.StringFixed(2),
		})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidReferralCode),
		errors.Is(err, services.ErrSelfReferralNotAllowed),
		errors.Is(err, services.ErrBelowMinimum):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrSequenceExhausted):
		logger.Error("certificate sequence exhausted", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Certificate numbers exhausted for this year"})
	default:
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
}

// uuidParam parses a path parameter, answering 400 on failure
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads page/limit query params with sane bounds
func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return page, limit, (page - 1) * limit
}
