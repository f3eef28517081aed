package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deeddraw/internal/auth"
	"deeddraw/internal/services"
)

type ReferralHandler struct {
	referralService *services.ReferralService
	logger          *zap.Logger
}

func NewReferralHandler(referralService *services.ReferralService, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		logger:          logger,
	}
}

// ValidateCode checks a code before the caller submits with it
// GET /api/referrals/validate/:code
func (h *ReferralHandler) ValidateCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	info, err := h.referralService.ValidateCode(c.Request.Context(), c.Param("code"), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    info,
	})
}

// GetReferrals returns referrals earned by the caller
// GET /api/referrals
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		unauthorized(c)
		return
	}

	referrals, err := h.referralService.ListReferrals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    referrals,
	})
}
