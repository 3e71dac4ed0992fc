package checkout

import (
	"errors"
	"time"

	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/pkg/pricing"
	"github.com/qs3c/hrsync_server/internal/pkg/razorpay"
)

// State 结账尝试所处状态
type State string

const (
	StateIdle         State = "idle"
	StatePlanSelected State = "plan_selected"
	StateAwaitingAuth State = "awaiting_auth"
	StateModalOpen    State = "modal_open"
	StateProcessing   State = "processing"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	StateCancelled    State = "cancelled"
)

// modalActive 弹窗处于可编辑状态。关闭收银台后回到弹窗，所以 cancelled 也算
func (s State) modalActive() bool {
	return s == StateModalOpen || s == StateCancelled
}

var (
	ErrCheckoutInFlight = errors.New("A payment is already in progress")
	ErrNoAttempt        = errors.New("No checkout in progress")
	ErrInvalidState     = errors.New("Checkout is not in a valid state for this action")
	ErrPlanNotFound     = errors.New("Plan not found")
	ErrInvalidYears     = errors.New("Years must be between 1 and 5")
	ErrInvalidCoupon    = errors.New("Invalid coupon code")
	ErrInvalidCallback  = errors.New("Invalid payment callback")
	ErrCallbackMismatch = errors.New("Payment callback does not match the order")
)

const (
	msgGatewayLoad  = "Failed to load Razorpay. Please refresh and try again."
	msgTransport    = "Having trouble reaching the billing service. Please try again."
	msgMalformed    = "Unexpected response from the billing service. Please try again."
	msgGeneric      = "An error occurred"
	msgLoginNeeded  = "Please login to continue"
	msgVerifyFailed = "Payment verification failed"
)

// Selection 用户在弹窗中的选择。Plan 是目录中套餐的副本
type Selection struct {
	Plan          model.Plan
	Years         int
	Coupon        string
	CouponApplied bool
}

// Breakdown 按当前选择实时计算价格
func (s Selection) Breakdown() pricing.Breakdown {
	return pricing.Compute(s.Plan, s.Years, s.Coupon, s.CouponApplied)
}

// Order 计费后端创建的订单，Amount 是最小货币单位的权威金额
type Order struct {
	OrderID        string
	Amount         int64
	Currency       string
	SubscriptionID string
}

// Callback 收银台成功回调
type Callback struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

type phase int

const (
	phaseIdle phase = iota
	phaseCreatingOrder
	phaseAwaitingCallback
	phaseVerifying
)

// Attempt 一次结账尝试，每个用户同时最多一个
type Attempt struct {
	ID        string
	UserID    int64
	State     State
	Selection Selection
	Order     *Order
	Options   *razorpay.CheckoutOptions
	Receipt   *model.Receipt
	Message   string
	Redirect  string

	// 单飞标记：从 Submit 开始到回调/关闭收银台/失败为止
	inFlight  bool
	phase     phase
	token     string
	updatedAt time.Time
}

// View 返回给前端的结账视图
type View struct {
	AttemptID       string                    `json:"attemptId,omitempty"`
	State           State                     `json:"state"`
	Plan            *model.Plan               `json:"plan,omitempty"`
	Years           int                       `json:"years,omitempty"`
	Coupon          string                    `json:"coupon"`
	CouponApplied   bool                      `json:"couponApplied"`
	Breakdown       *pricing.View             `json:"breakdown,omitempty"`
	AttemptedAmount string                    `json:"attemptedAmount,omitempty"`
	Checkout        *razorpay.CheckoutOptions `json:"checkout,omitempty"`
	Receipt         *model.Receipt            `json:"receipt,omitempty"`
	Message         string                    `json:"message,omitempty"`
	Redirect        string                    `json:"redirect,omitempty"`
}

func (a *Attempt) view() *View {
	plan := a.Selection.Plan
	v := &View{
		AttemptID:     a.ID,
		State:         a.State,
		Plan:          &plan,
		Years:         a.Selection.Years,
		Coupon:        a.Selection.Coupon,
		CouponApplied: a.Selection.CouponApplied,
		Message:       a.Message,
		Redirect:      a.Redirect,
	}

	if a.State != StatePlanSelected {
		b := a.Selection.Breakdown().View()
		v.Breakdown = &b
	}

	switch a.State {
	case StateProcessing:
		v.Checkout = a.Options
	case StateFailed:
		// 失败页展示的是预览价，只能标注为“尝试支付”
		v.AttemptedAmount = a.Selection.Breakdown().Payable().StringFixed(2)
	case StateSucceeded:
		v.Receipt = a.Receipt
	}
	return v
}
