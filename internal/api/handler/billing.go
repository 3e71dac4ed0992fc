package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hrsync_server/internal/api/middleware"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/service"
)

// BillingHandler 本地计费后端，响应格式与外部计费后端一致（错误体为 {message}）
type BillingHandler struct {
	billingService *service.BillingService
}

func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// Plans GET /api/billing/plans
func (h *BillingHandler) Plans(c *gin.Context) {
	plans, err := h.billingService.FetchPlans(c.Request.Context())
	if err != nil {
		log.Printf("Billing: list plans failed: %v", err)
		c.JSON(http.StatusInternalServerError, &dto.MessageResponse{Message: "Failed to fetch plans"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreateOrder POST /api/billing/create-order
func (h *BillingHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &dto.MessageResponse{Message: "planId and years are required"})
		return
	}
	// 以 token 中的用户为准
	req.UserID, _ = middleware.GetUserID(c)

	resp, err := h.billingService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		billingFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyPayment POST /api/billing/verify-payment
func (h *BillingHandler) VerifyPayment(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &dto.MessageResponse{Message: "Missing payment details"})
		return
	}
	if userID, ok := middleware.GetUserID(c); ok {
		req.UserID = userID
	}

	resp, err := h.billingService.VerifyPayment(c.Request.Context(), &req)
	if err != nil {
		billingFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func billingFailure(c *gin.Context, err error) {
	switch {
	case service.IsBillingRejection(err):
		c.JSON(http.StatusBadRequest, &dto.MessageResponse{Message: err.Error()})
	case errors.Is(err, service.ErrProviderUnavailable):
		log.Printf("Billing: payment provider error: %v", err)
		c.JSON(http.StatusBadGateway, &dto.MessageResponse{Message: service.ErrProviderUnavailable.Error()})
	default:
		log.Printf("Billing: internal error: %v", err)
		c.JSON(http.StatusInternalServerError, &dto.MessageResponse{Message: "Internal server error"})
	}
}
