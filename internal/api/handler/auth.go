package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hrsync_server/internal/api/middleware"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/backend"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			response.ParamError(c, verr.Message)
		case errors.Is(err, service.ErrEmailExists):
			response.ParamError(c, err.Error())
		default:
			backendFailure(c, err, "Registration failed")
		}
		return
	}

	response.SuccessWithMessage(c, "Registration successful, please login", resp)
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Email and password are required")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		var (
			verr   *service.ValidationError
			apiErr *backend.APIError
		)
		switch {
		case errors.As(err, &verr):
			response.ParamError(c, verr.Message)
		case errors.Is(err, service.ErrInvalidCredentials):
			response.AuthError(c, err.Error())
		case errors.As(err, &apiErr):
			response.AuthError(c, apiErr.Message)
		default:
			backendFailure(c, err, "Login failed")
		}
		return
	}

	response.SuccessWithMessage(c, "Login successful", resp)
}

// Logout 退出登录
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "Logged out", nil)
}

// Me 当前登录用户
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			response.Error(c, response.CodeLoginRequired, "")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, user)
}

// backendFailure 计费/网站后端相关错误
func backendFailure(c *gin.Context, err error, fallback string) {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		response.ParamError(c, apiErr.Message)
	case errors.Is(err, backend.ErrNotConfigured):
		response.Error(c, response.CodeConfigError, "")
	case errors.Is(err, backend.ErrTransport), errors.Is(err, backend.ErrMalformedResponse):
		response.Error(c, response.CodeUpstreamError, fallback)
	default:
		response.ServerError(c, "")
	}
}
