package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/config"
	"github.com/qs3c/hrsync_server/internal/api/handler"
	"github.com/qs3c/hrsync_server/internal/checkout"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/razorpay"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/pkg/ws"
	"github.com/qs3c/hrsync_server/internal/repository"
	"github.com/qs3c/hrsync_server/internal/service"
	"github.com/qs3c/hrsync_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: "test-secret-key", ExpireHours: 24},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://hrsync.in"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
		Razorpay: config.RazorpayConfig{KeyID: "rzp_test_key", BrandName: "HRSync"},
	}
}

func setupRouter(t *testing.T) (*gin.Engine, string, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.SeedPlans(t, db)
	user := testutil.TestUser(t, db)
	cfg := testConfig()

	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	sessions := session.NewService(session.NewMemoryStore(), time.Hour)
	billing := service.NewBillingService(planRepo, subRepo, razorpay.NewClient(cfg.Razorpay), "INR")
	catalog := service.NewCatalogService(billing, 0)
	orchestrator := checkout.NewOrchestrator(
		catalog,
		sessions,
		razorpay.NewGateway(cfg.Razorpay),
		service.NewLocalOrderBackend(billing),
		receiptRepo,
		attemptRepo,
		checkout.Options{LoginRedirect: "/login?redirect=pricing"},
	)

	router := NewRouter(
		handler.NewAuthHandler(service.NewAuthService(service.NewLocalAuthenticator(userRepo), sessions, cfg)),
		handler.NewUserHandler(service.NewProfileService(sessions, receiptRepo, attemptRepo, subRepo)),
		handler.NewCatalogHandler(catalog),
		handler.NewCheckoutHandler(orchestrator),
		handler.NewChatHandler(service.NewChatService(nil)),
		handler.NewWebSocketHandler(ws.NewHub(), cfg.JWT.Secret, cfg.CORS.AllowedOrigins),
		handler.NewBillingHandler(billing),
		sessions,
		cfg,
	)

	return router.Setup(), user.Email, func() { testutil.CleanupTestDB(t, db) }
}

func call(r http.Handler, method, path, token string, body interface{}) response.Response {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func login(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	resp := call(r, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: testutil.TestPassword})
	require.Equal(t, response.CodeSuccess, resp.Code, resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRouter_LogoutRevokesCheckout(t *testing.T) {
	r, email, cleanup := setupRouter(t)
	defer cleanup()

	token := login(t, r, email)

	assert.Equal(t, response.CodeSuccess, call(r, http.MethodGet, "/api/checkout", token, nil).Code)
	assert.Equal(t, response.CodeSuccess, call(r, http.MethodGet, "/api/auth/me", token, nil).Code)

	require.Equal(t, response.CodeSuccess, call(r, http.MethodPost, "/api/auth/logout", token, nil).Code)

	// 同一个 token 在登出后不能再访问结账接口
	for _, path := range []string{"/api/checkout", "/api/checkout/receipt", "/api/checkout/last-failure", "/api/auth/me"} {
		resp := call(r, http.MethodGet, path, token, nil)
		assert.Equal(t, response.CodeAuthFailed, resp.Code, path)
		assert.Equal(t, "Session expired, please login again", resp.Message, path)
	}
	resp := call(r, http.MethodPut, "/api/checkout/years", token, dto.SetYearsRequest{Years: 2})
	assert.Equal(t, response.CodeAuthFailed, resp.Code)

	// 重新登录后恢复
	token = login(t, r, email)
	assert.Equal(t, response.CodeSuccess, call(r, http.MethodGet, "/api/checkout", token, nil).Code)
}

func TestRouter_CheckoutRequiresLogin(t *testing.T) {
	r, _, cleanup := setupRouter(t)
	defer cleanup()

	resp := call(r, http.MethodGet, "/api/checkout", "", nil)
	assert.Equal(t, response.CodeLoginRequired, resp.Code)

	// 选套餐允许匿名，返回登录跳转
	resp = call(r, http.MethodPost, "/api/checkout/select", "", dto.SelectPlanRequest{PlanID: 2})
	assert.Equal(t, response.CodeSuccess, resp.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/login?redirect=pricing", data["redirect"])
}
