package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/hrsync_server/internal/checkout"
	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/backend"
	"github.com/qs3c/hrsync_server/internal/pkg/pricing"
	"github.com/qs3c/hrsync_server/internal/repository"
)

var (
	ErrInvalidCoupon        = errors.New("Invalid coupon code")
	ErrSubscriptionNotFound = errors.New("Subscription not found")
	ErrOrderMismatch        = errors.New("Order does not match subscription")
	ErrSubscriptionClosed   = errors.New("Subscription is no longer pending")
	ErrInvalidSignature     = errors.New("Payment verification failed: invalid signature")
	ErrProviderUnavailable  = errors.New("Failed to create order")
)

// billingRejections 可以原样返回给调用方的业务错误
var billingRejections = []error{
	ErrPlanNotFound,
	ErrInvalidYears,
	ErrInvalidCoupon,
	ErrSubscriptionNotFound,
	ErrOrderMismatch,
	ErrSubscriptionClosed,
	ErrInvalidSignature,
}

// IsBillingRejection 是否为业务拒绝（对应 HTTP 400）
func IsBillingRejection(err error) bool {
	for _, target := range billingRejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PaymentProvider 支付渠道
type PaymentProvider interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// BillingService 本地计费后端：定价以服务端为准，验签后激活订阅
type BillingService struct {
	planRepo *repository.PlanRepository
	subRepo  *repository.SubscriptionRepository
	provider PaymentProvider
	currency string
	now      func() time.Time
}

func NewBillingService(planRepo *repository.PlanRepository, subRepo *repository.SubscriptionRepository, provider PaymentProvider, currency string) *BillingService {
	if currency == "" {
		currency = "INR"
	}
	return &BillingService{
		planRepo: planRepo,
		subRepo:  subRepo,
		provider: provider,
		currency: currency,
		now:      time.Now,
	}
}

// FetchPlans 本地套餐目录
func (s *BillingService) FetchPlans(ctx context.Context) ([]model.Plan, error) {
	return s.planRepo.List()
}

// CreateOrder 服务端重新计算金额并创建渠道订单，同时落一条 pending 订阅
func (s *BillingService) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	if !pricing.ValidYears(req.Years) {
		return nil, ErrInvalidYears
	}

	plan, err := s.planRepo.GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	coupon := ""
	if req.Coupon != nil {
		coupon = pricing.NormalizeCoupon(*req.Coupon)
	}
	if coupon != "" && !pricing.CouponEligible(coupon) {
		return nil, ErrInvalidCoupon
	}

	breakdown := pricing.Compute(*plan, req.Years, coupon, coupon != "")
	amount := breakdown.MinorUnits()

	receipt := fmt.Sprintf("hrsync_%d_%d", req.UserID, s.now().UnixNano())
	orderID, err := s.provider.CreateOrder(ctx, amount, s.currency, receipt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	sub := &model.Subscription{
		UserID:          req.UserID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Years:           req.Years,
		Coupon:          coupon,
		AmountMinor:     amount,
		Currency:        s.currency,
		RazorpayOrderID: orderID,
		Status:          model.SubscriptionPending,
	}
	if err := s.subRepo.Create(sub); err != nil {
		return nil, err
	}

	return &dto.CreateOrderResponse{
		OrderID:        orderID,
		Amount:         amount,
		Currency:       s.currency,
		SubscriptionID: sub.ID,
	}, nil
}

// VerifyPayment 验签并激活订阅。同一笔支付重复提交视为成功
func (s *BillingService) VerifyPayment(ctx context.Context, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	sub, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	if sub.RazorpayOrderID != req.RazorpayOrderID || (req.UserID != 0 && sub.UserID != req.UserID) {
		return nil, ErrOrderMismatch
	}

	if sub.Status == model.SubscriptionActive && sub.RazorpayPaymentID == req.RazorpayPaymentID {
		return &dto.VerifyPaymentResponse{SubscriptionID: sub.ID, Status: sub.Status}, nil
	}
	if sub.Status != model.SubscriptionPending {
		return nil, ErrSubscriptionClosed
	}

	if !s.provider.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if err := s.subRepo.MarkFailed(sub.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidSignature
	}

	now := s.now()
	ok, err := s.subRepo.MarkActive(sub.ID, req.RazorpayPaymentID, now, now.AddDate(sub.Years, 0, 0))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubscriptionClosed
	}

	return &dto.VerifyPaymentResponse{SubscriptionID: sub.ID, Status: model.SubscriptionActive}, nil
}

func (s *BillingService) lookup(req *dto.VerifyPaymentRequest) (*model.Subscription, error) {
	var (
		sub *model.Subscription
		err error
	)
	if id, convErr := strconv.ParseInt(req.SubscriptionID.String(), 10, 64); convErr == nil && id > 0 {
		sub, err = s.subRepo.GetByID(id)
	} else {
		sub, err = s.subRepo.GetByOrderID(req.RazorpayOrderID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// LocalOrderBackend 让结账流程直接调用本地计费服务，业务拒绝转成后端错误以便原样展示
type LocalOrderBackend struct {
	billing *BillingService
}

func NewLocalOrderBackend(billing *BillingService) *LocalOrderBackend {
	return &LocalOrderBackend{billing: billing}
}

func (b *LocalOrderBackend) CreateOrder(ctx context.Context, token string, in checkout.CreateOrderInput) (*checkout.Order, error) {
	req := &dto.CreateOrderRequest{
		PlanID: in.PlanID,
		Years:  in.Years,
		UserID: in.UserID,
	}
	if in.Coupon != "" {
		coupon := in.Coupon
		req.Coupon = &coupon
	}

	resp, err := b.billing.CreateOrder(ctx, req)
	if err != nil {
		return nil, asBackendError(err)
	}
	return &checkout.Order{
		OrderID:        resp.OrderID,
		Amount:         resp.Amount,
		Currency:       resp.Currency,
		SubscriptionID: strconv.FormatInt(resp.SubscriptionID, 10),
	}, nil
}

func (b *LocalOrderBackend) VerifyPayment(ctx context.Context, token string, in checkout.VerifyInput) (string, error) {
	resp, err := b.billing.VerifyPayment(ctx, &dto.VerifyPaymentRequest{
		RazorpayOrderID:   in.OrderID,
		RazorpayPaymentID: in.PaymentID,
		RazorpaySignature: in.Signature,
		SubscriptionID:    backend.ID(in.SubscriptionID),
		UserID:            in.UserID,
	})
	if err != nil {
		return "", asBackendError(err)
	}
	return strconv.FormatInt(resp.SubscriptionID, 10), nil
}

func asBackendError(err error) error {
	if IsBillingRejection(err) {
		return &backend.APIError{Status: http.StatusBadRequest, Message: err.Error()}
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return &backend.APIError{Status: http.StatusBadGateway, Message: ErrProviderUnavailable.Error()}
	}
	return err
}
