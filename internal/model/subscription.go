package model

import (
	"time"
)

const (
	SubscriptionPending = "pending"
	SubscriptionActive  = "active"
	SubscriptionFailed  = "failed"
	SubscriptionExpired = "expired"
)

// Subscription 本地计费模式下的订单/订阅
type Subscription struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	UserID            int64      `gorm:"not null;index" json:"user_id"`
	PlanID            int64      `gorm:"not null" json:"plan_id"`
	PlanName          string     `gorm:"size:50" json:"plan_name"`
	Years             int        `gorm:"not null" json:"years"`
	Coupon            string     `gorm:"size:50" json:"coupon,omitempty"`
	AmountMinor       int64      `gorm:"not null" json:"amount"` // 最小货币单位（paise）
	Currency          string     `gorm:"size:10;default:INR" json:"currency"`
	RazorpayOrderID   string     `gorm:"size:100;uniqueIndex" json:"razorpay_order_id"`
	RazorpayPaymentID string     `gorm:"size:100" json:"razorpay_payment_id,omitempty"`
	Status            string     `gorm:"size:20;default:pending;index" json:"status"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
