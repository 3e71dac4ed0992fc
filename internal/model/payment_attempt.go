package model

import (
	"time"
)

const (
	AttemptOrderFailed  = "order_failed"
	AttemptOrderCreated = "order_created"
	AttemptVerified     = "verified"
	AttemptVerifyFailed = "verify_failed"
	AttemptCancelled    = "cancelled"
)

// PaymentAttempt 结账尝试审计记录。AttemptedAmount 是前端预览价，只能标注为“尝试支付”
type PaymentAttempt struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	AttemptID       string    `gorm:"size:36;index" json:"attemptId"`
	UserID          int64     `gorm:"not null;index" json:"userId"`
	PlanID          int64     `json:"planId"`
	PlanName        string    `gorm:"size:50" json:"planName"`
	Years           int       `json:"years"`
	Coupon          string    `gorm:"size:50" json:"coupon,omitempty"`
	AttemptedAmount string    `gorm:"size:32" json:"attemptedAmount"`
	OrderID         string    `gorm:"size:100" json:"orderId,omitempty"`
	SubscriptionID  string    `gorm:"size:100" json:"subscriptionId,omitempty"`
	ChargeAmount    int64     `json:"chargeAmount,omitempty"`
	Outcome         string    `gorm:"size:20;index" json:"outcome"`
	Message         string    `gorm:"size:500" json:"message,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}
