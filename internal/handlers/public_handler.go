package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deeddraw/internal/services"
)

// PublicHandler serves unauthenticated draw statistics
type PublicHandler struct {
	reportService *services.ReportService
	logger        *zap.Logger
}

func NewPublicHandler(reportService *services.ReportService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// GET /api/public/stats
func (h *PublicHandler) GetGlobalStats(c *gin.Context) {
	stats, err := h.reportService.GlobalStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// GET /api/public/leaderboard
func (h *PublicHandler) GetLeaderboard(c *gin.Context) {
	entries, err := h.reportService.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

// GET /api/public/search?query=
func (h *PublicHandler) SearchParticipants(c *gin.Context) {
	entries, err := h.reportService.SearchParticipants(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}
