package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"deeddraw/internal/auth"
	"deeddraw/internal/database"
	"deeddraw/internal/repository"
	"deeddraw/internal/services"
)

type testServer struct {
	router *gin.Engine
	repo   *repository.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.InitJWT("test-secret", time.Hour)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))

	log := zap.NewNop()
	repo := repository.NewRepository(db)
	adminService := services.NewAdminService(repo, log)
	transactionService := services.NewTransactionService(repo, services.NewLogNotifier(log), log)
	withdrawalService := services.NewWithdrawalService(repo, log)
	reportService := services.NewReportService(repo)

	h := &Handlers{
		Auth:        NewAuthHandler(services.NewAuthService(repo, log), log),
		User:        NewUserHandler(services.NewUserService(repo), log),
		Transaction: NewTransactionHandler(transactionService, log),
		Withdrawal:  NewWithdrawalHandler(withdrawalService, log),
		Referral:    NewReferralHandler(services.NewReferralService(repo), log),
		Admin:       NewAdminHandler(adminService, transactionService, withdrawalService, reportService, log),
		Public:      NewPublicHandler(reportService, log),
	}
	return &testServer{
		router: NewRouter(h, log, RouterOptions{
			AllowedOrigins: []string{"http://localhost:3000"},
			ExposeMetrics:  true,
		}),
		repo: repo,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

// register signs up a user and returns their token and referral code
func (s *testServer) register(t *testing.T, first, email, referredBy string) (string, string) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"first_name":  first,
		"last_name":   "Tester",
		"email":       email,
		"password":    "password123",
		"category":    "agent-broker",
		"city":        "Toronto",
		"province":    "ON",
		"referred_by": referredBy,
	})
	require.Equal(t, http.StatusCreated, code, body)
	data := body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	return data["token"].(string), user["referral_code"].(string)
}

func submissionBody(points int, code string) map[string]interface{} {
	return map[string]interface{}{
		"points":              points,
		"transaction_amount":  "650000",
		"etransfer_reference": "ET-42",
		"etransfer_email":     "payer@example.com",
		"referral_code_used":  code,
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deeddraw_http_requests_total")
}

func TestSubmitApproveFlow(t *testing.T) {
	s := newTestServer(t)

	adminToken, _ := s.register(t, "Root", "root@example.com", "")
	require.NoError(t, services.NewAdminService(s.repo, zap.NewNop()).EnsureAdmin(context.Background(), "root@example.com"))

	_, aliceCode := s.register(t, "Alice", "alice@example.com", "")
	bobToken, _ := s.register(t, "Bob", "bob@example.com", aliceCode)

	code, _ := s.do(t, http.MethodPost, "/api/transactions", "", submissionBody(2, ""))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := s.do(t, http.MethodPost, "/api/transactions", bobToken, submissionBody(2, aliceCode))
	require.Equal(t, http.StatusCreated, code, body)
	txn := body["data"].(map[string]interface{})
	assert.Equal(t, fmt.Sprintf("DD-%d-000001", time.Now().Year()), txn["certificate_number"])
	assert.Equal(t, "3800", txn["amount"])
	assert.Equal(t, "pending", txn["status"])
	txnID := txn["id"].(string)

	code, _ = s.do(t, http.MethodGet, "/api/admin/dashboard", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	approvePath := "/api/admin/transactions/" + txnID + "/approve"
	code, body = s.do(t, http.MethodPut, approvePath, adminToken, map[string]string{"notes": "ok"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "verified", body["data"].(map[string]interface{})["status"])

	code, body = s.do(t, http.MethodPut, approvePath, adminToken, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "verified", body["current_status"])

	code, body = s.do(t, http.MethodGet, "/api/public/stats", "", nil)
	require.Equal(t, http.StatusOK, code)
	stats := body["data"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["total_points"])
	assert.EqualValues(t, 398, stats["points_until_draw"])

	code, body = s.do(t, http.MethodGet, "/api/users/stats", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["data"].(map[string]interface{})["total_points"])
}

func TestErrorMappings(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register(t, "Root", "root@example.com", "")
	require.NoError(t, services.NewAdminService(s.repo, zap.NewNop()).EnsureAdmin(context.Background(), "root@example.com"))
	bobToken, bobCode := s.register(t, "Bob", "bob@example.com", "")

	code, _ := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"first_name": "Bob", "last_name": "Again", "email": "BOB@example.com",
		"password": "password123", "category": "developer",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "bob@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/transactions", bobToken, submissionBody(1, bobCode))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/transactions", bobToken, submissionBody(0, ""))
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.do(t, http.MethodPost, "/api/withdrawals", bobToken, map[string]string{
		"amount": "150", "email": "bob@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "0.00", body["available"])

	code, _ = s.do(t, http.MethodPost, "/api/withdrawals", bobToken, map[string]string{
		"amount": "50", "email": "bob@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, "/api/admin/transactions/not-a-uuid/approve", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, "/api/admin/transactions/"+uuid.NewString()+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/api/referrals/validate/"+bobCode, bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t)
	bobToken, bobCode := s.register(t, "Bob", "bob@example.com", "")

	code, _ := s.do(t, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := s.do(t, http.MethodPut, "/api/users/profile", bobToken, map[string]interface{}{
		"first_name":    "Robert",
		"company":       "Jones Realty",
		"referral_code": "HACKED0000",
		"total_points":  99,
		"is_admin":      true,
	})
	require.Equal(t, http.StatusOK, code, body)

	code, body = s.do(t, http.MethodGet, "/api/users/profile", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	profile := body["data"].(map[string]interface{})
	assert.Equal(t, "Robert", profile["first_name"])
	assert.Equal(t, "Jones Realty", profile["company"])
	assert.Equal(t, bobCode, profile["referral_code"])
	assert.EqualValues(t, 0, profile["total_points"])
	assert.Equal(t, false, profile["is_admin"])

	code, _ = s.do(t, http.MethodPut, "/api/users/profile", bobToken, map[string]string{"category": "astronaut"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestExportParticipantsXLSX(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register(t, "Root", "root@example.com", "")
	require.NoError(t, services.NewAdminService(s.repo, zap.NewNop()).EnsureAdmin(context.Background(), "root@example.com"))
	s.register(t, "Bob", "bob@example.com", "")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/export-participants?format=xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "participants_")
	assert.NotZero(t, w.Body.Len())

	code, body := s.do(t, http.MethodGet, "/api/admin/export-participants", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
}
