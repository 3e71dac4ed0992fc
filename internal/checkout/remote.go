package checkout

import (
	"context"

	"github.com/qs3c/hrsync_server/internal/pkg/backend"
)

// RemoteBackend 通过 HTTP 调用外部计费后端
type RemoteBackend struct {
	client *backend.Client
}

func NewRemoteBackend(client *backend.Client) *RemoteBackend {
	return &RemoteBackend{client: client}
}

func (r *RemoteBackend) CreateOrder(ctx context.Context, token string, in CreateOrderInput) (*Order, error) {
	order, err := r.client.CreateOrder(ctx, token, &backend.CreateOrderRequest{
		PlanID: in.PlanID,
		Years:  in.Years,
		Coupon: optional(in.Coupon),
		UserID: in.UserID,
	})
	if err != nil {
		return nil, err
	}
	return &Order{
		OrderID:        order.OrderID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		SubscriptionID: order.SubscriptionID.String(),
	}, nil
}

func (r *RemoteBackend) VerifyPayment(ctx context.Context, token string, in VerifyInput) (string, error) {
	result, err := r.client.VerifyPayment(ctx, token, &backend.VerifyPaymentRequest{
		RazorpayOrderID:   in.OrderID,
		RazorpayPaymentID: in.PaymentID,
		RazorpaySignature: in.Signature,
		SubscriptionID:    in.SubscriptionID,
		UserID:            in.UserID,
		Coupon:            optional(in.Coupon),
	})
	if err != nil {
		return "", err
	}
	return result.SubscriptionID.String(), nil
}

// optional 空串序列化为 null
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
