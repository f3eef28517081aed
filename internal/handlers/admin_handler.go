package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"deeddraw/internal/auth"
	"deeddraw/internal/models"
	"deeddraw/internal/repository"
	"deeddraw/internal/services"
)

const adminIDKey = "admin_id"

type AdminHandler struct {
	adminService       *services.AdminService
	transactionService *services.TransactionService
	withdrawalService  *services.WithdrawalService
	reportService      *services.ReportService
	logger             *zap.Logger
}

func NewAdminHandler(
	adminService *services.AdminService,
	transactionService *services.TransactionService,
	withdrawalService *services.WithdrawalService,
	reportService *services.ReportService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		adminService:       adminService,
		transactionService: transactionService,
		withdrawalService:  withdrawalService,
		reportService:      reportService,
		logger:             logger,
	}
}

// AdminMiddleware checks if user is admin. The flag is read from the
// database so a revoked admin loses access before their token expires.
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			unauthorized(c)
			c.Abort()
			return
		}

		isAdmin, err := h.adminService.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			respondError(c, h.logger, err)
			c.Abort()
			return
		}
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Admin access required"})
			c.Abort()
			return
		}

		c.Set(adminIDKey, userID)
		c.Next()
	}
}

func adminID(c *gin.Context) uint {
	return c.GetUint(adminIDKey)
}

// GetDashboard returns admin dashboard data
// GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetTransactions lists transactions with optional status/user filters
// GET /api/admin/transactions?status=pending&user_id=1&page=1&limit=50
func (h *AdminHandler) GetTransactions(c *gin.Context) {
	page, limit, offset := pagination(c)
	filter := repository.TransactionFilter{
		Status: models.TransactionStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid user_id")
			return
		}
		filter.UserID = uint(id)
	}

	txns, total, err := h.transactionService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txns,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// GetTransaction returns one transaction with its owner
// GET /api/admin/transactions/:id
func (h *AdminHandler) GetTransaction(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	txn, err := h.transactionService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": txn})
}

// ApproveTransaction verifies a pending transaction
// PUT /api/admin/transactions/:id/approve
func (h *AdminHandler) ApproveTransaction(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	txn, err := h.transactionService.Approve(c.Request.Context(), id, adminID(c), req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Transaction approved",
		"data":    txn,
	})
}

// RejectTransaction rejects a pending transaction
// PUT /api/admin/transactions/:id/reject
func (h *AdminHandler) RejectTransaction(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	txn, err := h.transactionService.Reject(c.Request.Context(), id, adminID(c), req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Transaction rejected",
		"data":    txn,
	})
}

// GetWithdrawals lists withdrawal requests
// GET /api/admin/withdrawals?status=pending
func (h *AdminHandler) GetWithdrawals(c *gin.Context) {
	ws, err := h.withdrawalService.ListWithdrawals(c.Request.Context(), models.WithdrawalStatus(c.Query("status")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ws})
}

// ApproveWithdrawal marks a request paid
// PUT /api/admin/withdrawals/:id/approve
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	h.processWithdrawal(c, h.withdrawalService.ApproveWithdrawal, "Withdrawal approved")
}

// RejectWithdrawal returns a request's amount to the user's balance
// PUT /api/admin/withdrawals/:id/reject
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	h.processWithdrawal(c, h.withdrawalService.RejectWithdrawal, "Withdrawal rejected")
}

type withdrawalAction func(ctx context.Context, id uuid.UUID, adminID uint, notes string) (*models.Withdrawal, error)

func (h *AdminHandler) processWithdrawal(c *gin.Context, action withdrawalAction, message string) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	w, err := action(c.Request.Context(), id, adminID(c), req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    w,
	})
}

// GetUsers returns paginated participants
// GET /api/admin/users?search=&category=&page=&limit=
func (h *AdminHandler) GetUsers(c *gin.Context) {
	page, limit, offset := pagination(c)

	users, total, err := h.adminService.GetAllUsers(c.Request.Context(), repository.UserFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// PromoteToAdmin grants admin rights to a user
// POST /api/admin/users/:id/promote
func (h *AdminHandler) PromoteToAdmin(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid id")
		return
	}

	if err := h.adminService.PromoteUserToAdmin(c.Request.Context(), uint(id), adminID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User promoted to admin",
	})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportParticipants returns the draw export as JSON, or as a spreadsheet
// with ?format=xlsx
// GET /api/admin/export-participants
func (h *AdminHandler) ExportParticipants(c *gin.Context) {
	if c.Query("format") == "xlsx" {
		buf, filename, err := h.adminService.ExportParticipantsXLSX(c.Request.Context(), time.Now())
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.Header("Content-Description", "File Transfer")
		c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
		return
	}

	rows, err := h.adminService.ExportParticipants(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"participants": rows,
		"count":        len(rows),
	})
}

// GetAdminLogs returns the audit trail
// GET /api/admin/logs?page=&limit=
func (h *AdminHandler) GetAdminLogs(c *gin.Context) {
	page, limit, offset := pagination(c)

	logs, total, err := h.adminService.GetAdminLogs(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
