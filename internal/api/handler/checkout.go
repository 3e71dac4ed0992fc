package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hrsync_server/internal/api/middleware"
	"github.com/qs3c/hrsync_server/internal/checkout"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
)

type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
}

func NewCheckoutHandler(orchestrator *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
	}
}

// Select 选择套餐。未登录时返回 awaiting_auth 和登录跳转地址
// POST /api/checkout/select
func (h *CheckoutHandler) Select(c *gin.Context) {
	var req dto.SelectPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "planId is required")
		return
	}

	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.SelectPlan(c.Request.Context(), userID, req.PlanID)
	respondView(c, view, err)
}

// Open POST /api/checkout/open
func (h *CheckoutHandler) Open(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.OpenModal(userID)
	respondView(c, view, err)
}

// SetYears PUT /api/checkout/years
func (h *CheckoutHandler) SetYears(c *gin.Context) {
	var req dto.SetYearsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, checkout.ErrInvalidYears.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.SetYears(userID, req.Years)
	respondView(c, view, err)
}

// SetCoupon PUT /api/checkout/coupon
func (h *CheckoutHandler) SetCoupon(c *gin.Context) {
	var req dto.SetCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.SetCoupon(userID, req.Coupon)
	respondView(c, view, err)
}

// ApplyCoupon POST /api/checkout/coupon/apply
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.ApplyCoupon(userID)
	respondView(c, view, err)
}

// Quote GET /api/checkout/quote
func (h *CheckoutHandler) Quote(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.Quote(userID)
	respondView(c, view, err)
}

// Current GET /api/checkout
func (h *CheckoutHandler) Current(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	response.Success(c, h.orchestrator.Current(userID))
}

// Submit 建单，返回收银台参数
// POST /api/checkout/submit
func (h *CheckoutHandler) Submit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.Submit(c.Request.Context(), userID)
	respondView(c, view, err)
}

// Complete 收银台成功回调，服务端验签
// POST /api/checkout/complete
func (h *CheckoutHandler) Complete(c *gin.Context) {
	var cb checkout.Callback
	if err := c.ShouldBindJSON(&cb); err != nil {
		response.ParamError(c, checkout.ErrInvalidCallback.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.Complete(c.Request.Context(), userID, cb)
	respondView(c, view, err)
}

// Dismiss 用户关闭收银台
// POST /api/checkout/dismiss
func (h *CheckoutHandler) Dismiss(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.Dismiss(userID)
	respondView(c, view, err)
}

// Retry POST /api/checkout/retry
func (h *CheckoutHandler) Retry(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	view, err := h.orchestrator.Retry(userID)
	respondView(c, view, err)
}

// Close DELETE /api/checkout
func (h *CheckoutHandler) Close(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	if err := h.orchestrator.Close(userID); err != nil {
		checkoutError(c, err)
		return
	}
	response.Success(c, h.orchestrator.Current(userID))
}

func respondView(c *gin.Context, view *checkout.View, err error) {
	if err != nil {
		checkoutError(c, err)
		return
	}
	response.Success(c, view)
}

func checkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrCheckoutInFlight):
		response.DuplicateError(c, err.Error())
	case errors.Is(err, checkout.ErrPlanNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, checkout.ErrInvalidYears),
		errors.Is(err, checkout.ErrInvalidCoupon),
		errors.Is(err, checkout.ErrInvalidCallback):
		response.ParamError(c, err.Error())
	case errors.Is(err, checkout.ErrNoAttempt),
		errors.Is(err, checkout.ErrInvalidState),
		errors.Is(err, checkout.ErrCallbackMismatch):
		response.Error(c, response.CodeCheckoutState, err.Error())
	default:
		response.ServerError(c, "")
	}
}
