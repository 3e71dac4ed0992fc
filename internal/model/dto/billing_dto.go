package dto

import (
	"github.com/qs3c/hrsync_server/internal/pkg/backend"
)

// 以下结构与计费后端的对外契约一致（camelCase + razorpay 回调字段）

type CreateOrderRequest struct {
	PlanID int64   `json:"planId" binding:"required"`
	Years  int     `json:"years" binding:"required"`
	Coupon *string `json:"coupon"`
	UserID int64   `json:"userId"`
}

type CreateOrderResponse struct {
	OrderID        string `json:"orderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	SubscriptionID int64  `json:"subscriptionId"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string     `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string     `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string     `json:"razorpay_signature" binding:"required"`
	SubscriptionID    backend.ID `json:"subscriptionId"`
	UserID            int64      `json:"userId"`
	Coupon            *string    `json:"coupon"`
}

type VerifyPaymentResponse struct {
	SubscriptionID int64  `json:"subscriptionId"`
	Status         string `json:"status"`
}

// MessageResponse 计费接口的错误体 {message}
type MessageResponse struct {
	Message string `json:"message"`
}
