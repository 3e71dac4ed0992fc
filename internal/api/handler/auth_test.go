package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/config"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/repository"
	"github.com/qs3c/hrsync_server/internal/service"
	"github.com/qs3c/hrsync_server/internal/testutil"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key",
			ExpireHours: 24,
		},
	}

	sessions := session.NewService(session.NewMemoryStore(), time.Hour)
	authService := service.NewAuthService(service.NewLocalAuthenticator(userRepo), sessions, cfg)
	handler := NewAuthHandler(authService)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return handler, cleanup
}

func registerBody() dto.RegisterRequest {
	return dto.RegisterRequest{
		Name:     "Acme Corp",
		Email:    "owner@acme.in",
		Password: "password123",
		Phone:    "9876543210",
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)

	w := performRequest(router, "POST", "/register", registerBody())
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)

	w := performRequest(router, "POST", "/register", registerBody())
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, "POST", "/register", registerBody())
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
	assert.Equal(t, "Email is already registered", resp.Message)
}

func TestAuthHandler_Register_ValidationMessage(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)

	body := registerBody()
	body.Phone = "12345"
	w := performRequest(router, "POST", "/register", body)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
	assert.Equal(t, "Enter a valid 10-digit Indian phone number", resp.Message)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)

	performRequest(router, "POST", "/register", registerBody())

	w := performRequest(router, "POST", "/login", dto.LoginRequest{Email: "owner@acme.in", Password: "password123"})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var login dto.LoginResponse
	decodeData(t, resp, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "Acme Corp", login.User.Name)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/login", handler.Login)

	w := performRequest(router, "POST", "/login", dto.LoginRequest{Email: "owner@acme.in", Password: "password123"})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeAuthFailed, resp.Code)
	assert.Equal(t, "Invalid email or password", resp.Message)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/login", handler.Login)

	w := performRequest(router, "POST", "/login", map[string]string{"email": "owner@acme.in"})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAuthHandler_LogoutAndMe(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)

	performRequest(router, "POST", "/register", registerBody())
	w := performRequest(router, "POST", "/login", dto.LoginRequest{Email: "owner@acme.in", Password: "password123"})
	var login dto.LoginResponse
	decodeData(t, parseResponse(t, w), &login)

	authed := gin.New()
	authed.Use(asUser(login.User.ID))
	authed.GET("/me", handler.Me)
	authed.POST("/logout", handler.Logout)

	resp := parseResponse(t, performRequest(authed, "GET", "/me", nil))
	assert.Equal(t, response.CodeSuccess, resp.Code)

	resp = parseResponse(t, performRequest(authed, "POST", "/logout", nil))
	assert.Equal(t, response.CodeSuccess, resp.Code)

	resp = parseResponse(t, performRequest(authed, "GET", "/me", nil))
	assert.Equal(t, response.CodeLoginRequired, resp.Code)
}
