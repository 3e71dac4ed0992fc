package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hrsync_server/internal/api/middleware"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/service"
)

type UserHandler struct {
	profileService *service.ProfileService
}

func NewUserHandler(profileService *service.ProfileService) *UserHandler {
	return &UserHandler{
		profileService: profileService,
	}
}

// GetProfile 个人中心
// GET /api/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	profile, err := h.profileService.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			response.Error(c, response.CodeLoginRequired, "")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, profile)
}

// GetReceipt 最近一次成功购买（支付成功页）
// GET /api/checkout/receipt
func (h *UserHandler) GetReceipt(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	receipt, err := h.profileService.Receipt(userID)
	if err != nil {
		if errors.Is(err, service.ErrReceiptNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, receipt)
}

// GetLastFailure 最近一次失败的支付尝试（支付失败页）
// GET /api/checkout/last-failure
func (h *UserHandler) GetLastFailure(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	attempt, err := h.profileService.LastFailure(userID)
	if err != nil {
		if errors.Is(err, service.ErrNoFailedAttempt) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, attempt)
}
