package checkout

import (
	"context"

	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/pkg/razorpay"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
)

type CreateOrderInput struct {
	PlanID int64
	Years  int
	Coupon string // 空串表示未使用
	UserID int64
}

type VerifyInput struct {
	OrderID        string
	PaymentID      string
	Signature      string
	SubscriptionID string
	UserID         int64
	Coupon         string
}

// OrderBackend 计费后端：远程 HTTP 或本地计费服务
type OrderBackend interface {
	CreateOrder(ctx context.Context, token string, in CreateOrderInput) (*Order, error)
	VerifyPayment(ctx context.Context, token string, in VerifyInput) (subscriptionID string, err error)
}

// Gateway 支付网关（收银台）
type Gateway interface {
	Ensure(ctx context.Context) error
	CheckoutOptions(orderID string, amount int64, currency, planName string, years int, prefill razorpay.Prefill) razorpay.CheckoutOptions
}

type PlanFinder interface {
	FindPlan(ctx context.Context, planID int64) (model.Plan, bool)
}

type SessionReader interface {
	Get(ctx context.Context, userID int64) (*session.Session, error)
}

type ReceiptStore interface {
	Upsert(receipt *model.Receipt) error
}

type AttemptRecorder interface {
	Create(attempt *model.PaymentAttempt) error
}
