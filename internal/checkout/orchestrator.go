// Package checkout 驱动一次结账：选套餐 → 弹窗选年限/优惠码 → 建单 → 收银台 → 回调验签 → 回执。
//
// 每个用户同时只有一个结账尝试。Submit 进入 processing 后直到回调、关闭收银台或失败之前，
// 任何新的提交或选套餐都会得到 ErrCheckoutInFlight，不会重复建单。
package checkout

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/pkg/backend"
	"github.com/qs3c/hrsync_server/internal/pkg/pricing"
	"github.com/qs3c/hrsync_server/internal/pkg/razorpay"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
)

type Options struct {
	LoginRedirect   string
	SuccessRedirect string
	FailureRedirect string
	Currency        string
}

type Orchestrator struct {
	plans    PlanFinder
	sessions SessionReader
	gateway  Gateway
	backend  OrderBackend
	receipts ReceiptStore
	audit    AttemptRecorder
	opts     Options

	mu       sync.Mutex
	attempts map[int64]*Attempt
	now      func() time.Time
}

func NewOrchestrator(
	plans PlanFinder,
	sessions SessionReader,
	gateway Gateway,
	orders OrderBackend,
	receipts ReceiptStore,
	audit AttemptRecorder,
	opts Options,
) *Orchestrator {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &Orchestrator{
		plans:    plans,
		sessions: sessions,
		gateway:  gateway,
		backend:  orders,
		receipts: receipts,
		audit:    audit,
		opts:     opts,
		attempts: make(map[int64]*Attempt),
		now:      time.Now,
	}
}

// SelectPlan 选择套餐。没有会话时返回 awaiting_auth 和登录跳转地址，不创建尝试
func (o *Orchestrator) SelectPlan(ctx context.Context, userID, planID int64) (*View, error) {
	if _, err := o.sessions.Get(ctx, userID); err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			log.Printf("Checkout: session lookup failed for user %d: %v", userID, err)
		}
		return o.loginRequired(), nil
	}

	plan, ok := o.plans.FindPlan(ctx, planID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if cur, ok := o.attempts[userID]; ok && cur.inFlight {
		return nil, ErrCheckoutInFlight
	}

	a := &Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     StatePlanSelected,
		Selection: Selection{Plan: plan},
		updatedAt: o.now(),
	}
	o.attempts[userID] = a
	return a.view(), nil
}

// OpenModal plan_selected → modal_open，年限 1，优惠码清空
func (o *Orchestrator) OpenModal(userID int64) (*View, error) {
	return o.mutate(userID, func(a *Attempt) error {
		if a.State != StatePlanSelected {
			return ErrInvalidState
		}
		a.Selection.Years = pricing.MinYears
		a.Selection.Coupon = ""
		a.Selection.CouponApplied = false
		a.State = StateModalOpen
		return nil
	})
}

// SetYears 修改年限。已应用的优惠码需要重新确认，输入框里的文本保留
func (o *Orchestrator) SetYears(userID int64, years int) (*View, error) {
	if !pricing.ValidYears(years) {
		return nil, ErrInvalidYears
	}
	return o.mutate(userID, func(a *Attempt) error {
		if !a.State.modalActive() {
			return ErrInvalidState
		}
		a.Selection.Years = years
		a.Selection.CouponApplied = false
		a.toModal()
		return nil
	})
}

// SetCoupon 保存规范化后的优惠码，文本变化时取消已应用状态
func (o *Orchestrator) SetCoupon(userID int64, code string) (*View, error) {
	code = pricing.NormalizeCoupon(code)
	return o.mutate(userID, func(a *Attempt) error {
		if !a.State.modalActive() {
			return ErrInvalidState
		}
		if code != a.Selection.Coupon {
			a.Selection.CouponApplied = false
		}
		a.Selection.Coupon = code
		a.toModal()
		return nil
	})
}

// ApplyCoupon 只有可用的优惠码才能应用
func (o *Orchestrator) ApplyCoupon(userID int64) (*View, error) {
	return o.mutate(userID, func(a *Attempt) error {
		if !a.State.modalActive() {
			return ErrInvalidState
		}
		if !pricing.CouponEligible(a.Selection.Coupon) {
			return ErrInvalidCoupon
		}
		a.Selection.CouponApplied = true
		a.toModal()
		return nil
	})
}

// Quote 当前弹窗的实时价格
func (o *Orchestrator) Quote(userID int64) (*View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[userID]
	if !ok {
		return nil, ErrNoAttempt
	}
	if !a.State.modalActive() {
		return nil, ErrInvalidState
	}
	return a.view(), nil
}

// Current 当前尝试的视图，没有尝试时返回 idle
func (o *Orchestrator) Current(userID int64) *View {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[userID]
	if !ok {
		return &View{State: StateIdle}
	}
	return a.view()
}

// Submit 建单并返回收银台参数。网络错误不会抛出，折叠为视图中的提示并回到弹窗
func (o *Orchestrator) Submit(ctx context.Context, userID int64) (*View, error) {
	o.mu.Lock()
	a, ok := o.attempts[userID]
	if !ok {
		o.mu.Unlock()
		return nil, ErrNoAttempt
	}
	if a.inFlight {
		o.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	if !a.State.modalActive() {
		o.mu.Unlock()
		return nil, ErrInvalidState
	}
	a.inFlight = true
	a.phase = phaseCreatingOrder
	a.State = StateProcessing
	a.Message = ""
	a.Redirect = ""
	a.updatedAt = o.now()
	sel := a.Selection
	o.mu.Unlock()

	sess, err := o.sessions.Get(ctx, userID)
	if err != nil {
		o.mu.Lock()
		delete(o.attempts, userID)
		o.mu.Unlock()
		return o.loginRequired(), nil
	}

	if err := o.gateway.Ensure(ctx); err != nil {
		log.Printf("Checkout: gateway not ready for user %d: %v", userID, err)
		msg := msgGatewayLoad
		if errors.Is(err, razorpay.ErrNotConfigured) {
			msg = err.Error()
		}
		return o.abortToModal(a, msg), nil
	}

	coupon := ""
	if sel.CouponApplied {
		coupon = sel.Coupon
	}

	order, err := o.backend.CreateOrder(ctx, sess.Token, CreateOrderInput{
		PlanID: sel.Plan.ID,
		Years:  sel.Years,
		Coupon: coupon,
		UserID: userID,
	})
	if err != nil {
		msg := userMessage(err)
		log.Printf("Checkout: create order failed for user %d plan %d: %v", userID, sel.Plan.ID, err)
		o.record(a, sel, nil, model.AttemptOrderFailed, msg)
		return o.abortToModal(a, msg), nil
	}
	if order.Currency == "" {
		order.Currency = o.opts.Currency
	}

	// 金额只取后端订单，预览价不参与扣款
	opts := o.gateway.CheckoutOptions(order.OrderID, order.Amount, order.Currency, sel.Plan.Name, sel.Years, razorpay.Prefill{
		Name:  sess.User.Name,
		Email: sess.User.Email,
	})

	o.mu.Lock()
	a.Order = order
	a.Options = &opts
	a.token = sess.Token
	a.phase = phaseAwaitingCallback
	a.updatedAt = o.now()
	v := a.view()
	o.mu.Unlock()

	o.record(a, sel, order, model.AttemptOrderCreated, "")
	return v, nil
}

// Complete 收银台成功回调。验签成功后写入回执（仅一次）并进入 succeeded
func (o *Orchestrator) Complete(ctx context.Context, userID int64, cb Callback) (*View, error) {
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return nil, ErrInvalidCallback
	}

	o.mu.Lock()
	a, ok := o.attempts[userID]
	if !ok {
		o.mu.Unlock()
		return nil, ErrNoAttempt
	}
	if a.State != StateProcessing {
		o.mu.Unlock()
		return nil, ErrInvalidState
	}
	if a.phase != phaseAwaitingCallback {
		o.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	if cb.OrderID != a.Order.OrderID {
		o.mu.Unlock()
		return nil, ErrCallbackMismatch
	}
	a.phase = phaseVerifying
	sel, order, token := a.Selection, *a.Order, a.token
	o.mu.Unlock()

	coupon := ""
	if sel.CouponApplied {
		coupon = sel.Coupon
	}

	subscriptionID, err := o.backend.VerifyPayment(ctx, token, VerifyInput{
		OrderID:        cb.OrderID,
		PaymentID:      cb.PaymentID,
		Signature:      cb.Signature,
		SubscriptionID: order.SubscriptionID,
		UserID:         userID,
		Coupon:         coupon,
	})
	if err != nil {
		msg := userMessage(err)
		if msg == msgGeneric {
			msg = msgVerifyFailed
		}
		log.Printf("Checkout: verification failed for user %d order %s: %v", userID, order.OrderID, err)
		o.record(a, sel, &order, model.AttemptVerifyFailed, msg)

		o.mu.Lock()
		a.State = StateFailed
		a.Message = msg
		a.Redirect = o.opts.FailureRedirect
		a.release(o.now())
		v := a.view()
		o.mu.Unlock()
		return v, nil
	}
	if subscriptionID == "" {
		subscriptionID = order.SubscriptionID
	}

	receipt := &model.Receipt{
		UserID:         userID,
		PlanName:       sel.Plan.Name,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Years:          sel.Years,
		Employees:      sel.Plan.EmployeeBand(),
		SubscriptionID: subscriptionID,
		PaidAt:         o.now(),
	}
	if err := o.receipts.Upsert(receipt); err != nil {
		// 支付已验签，回执写失败不回滚状态
		log.Printf("Checkout: failed to persist receipt for user %d order %s: %v", userID, order.OrderID, err)
	}
	order.SubscriptionID = subscriptionID
	o.record(a, sel, &order, model.AttemptVerified, "")

	o.mu.Lock()
	a.State = StateSucceeded
	a.Receipt = receipt
	a.Redirect = o.opts.SuccessRedirect
	a.release(o.now())
	v := a.view()
	o.mu.Unlock()

	log.Printf("Checkout: user %d subscribed to %s for %d year(s), subscription %s", userID, sel.Plan.Name, sel.Years, subscriptionID)
	return v, nil
}

// Dismiss 用户关闭收银台且没有回调：不是错误，回到弹窗，不会调用验签
func (o *Orchestrator) Dismiss(userID int64) (*View, error) {
	o.mu.Lock()
	a, ok := o.attempts[userID]
	if !ok {
		o.mu.Unlock()
		return nil, ErrNoAttempt
	}
	if a.State != StateProcessing {
		o.mu.Unlock()
		return nil, ErrInvalidState
	}
	if a.phase != phaseAwaitingCallback {
		o.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	a.State = StateCancelled
	a.Message = ""
	a.release(o.now())
	sel, order := a.Selection, *a.Order
	v := a.view()
	o.mu.Unlock()

	o.record(a, sel, &order, model.AttemptCancelled, "")
	return v, nil
}

// Retry failed → modal_open，保留原来的选择
func (o *Orchestrator) Retry(userID int64) (*View, error) {
	return o.mutate(userID, func(a *Attempt) error {
		if a.State != StateFailed {
			return ErrInvalidState
		}
		a.toModal()
		return nil
	})
}

// Close 关闭弹窗，丢弃尝试。处理中不允许关闭
func (o *Orchestrator) Close(userID int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[userID]
	if !ok {
		return nil
	}
	if a.inFlight {
		return ErrCheckoutInFlight
	}
	delete(o.attempts, userID)
	return nil
}

// Sweep 清理空闲超过 maxIdle 且不在处理中的尝试
func (o *Orchestrator) Sweep(maxIdle time.Duration) int {
	now := o.now()
	removed := 0

	o.mu.Lock()
	defer o.mu.Unlock()
	for userID, a := range o.attempts {
		// 处理中的尝试只能由用户回调或取消结束
		if a.inFlight || now.Sub(a.updatedAt) < maxIdle {
			continue
		}
		delete(o.attempts, userID)
		removed++
	}
	return removed
}

// mutate 在锁内修改当前尝试并返回新视图
func (o *Orchestrator) mutate(userID int64, fn func(a *Attempt) error) (*View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[userID]
	if !ok {
		return nil, ErrNoAttempt
	}
	if a.inFlight {
		return nil, ErrCheckoutInFlight
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	a.updatedAt = o.now()
	return a.view(), nil
}

func (o *Orchestrator) abortToModal(a *Attempt, msg string) *View {
	o.mu.Lock()
	defer o.mu.Unlock()

	a.State = StateModalOpen
	a.Message = msg
	a.Order = nil
	a.Options = nil
	a.release(o.now())
	return a.view()
}

func (o *Orchestrator) loginRequired() *View {
	return &View{
		State:    StateAwaitingAuth,
		Message:  msgLoginNeeded,
		Redirect: o.opts.LoginRedirect,
	}
}

// record 写审计记录，失败只记日志
func (o *Orchestrator) record(a *Attempt, sel Selection, order *Order, outcome, msg string) {
	if o.audit == nil {
		return
	}

	row := &model.PaymentAttempt{
		AttemptID:       a.ID,
		UserID:          a.UserID,
		PlanID:          sel.Plan.ID,
		PlanName:        sel.Plan.Name,
		Years:           sel.Years,
		AttemptedAmount: sel.Breakdown().Payable().StringFixed(2),
		Outcome:         outcome,
		Message:         msg,
	}
	if sel.CouponApplied {
		row.Coupon = sel.Coupon
	}
	if order != nil {
		row.OrderID = order.OrderID
		row.SubscriptionID = order.SubscriptionID
		row.ChargeAmount = order.Amount
	}
	if err := o.audit.Create(row); err != nil {
		log.Printf("Checkout: failed to record %s attempt for user %d: %v", outcome, a.UserID, err)
	}
}

func (a *Attempt) toModal() {
	a.State = StateModalOpen
	a.Message = ""
	a.Redirect = ""
}

func (a *Attempt) release(now time.Time) {
	a.inFlight = false
	a.phase = phaseIdle
	a.token = ""
	a.updatedAt = now
}

// userMessage 把后端错误折叠成一句给用户看的话
func userMessage(err error) string {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, backend.ErrNotConfigured):
		return backend.ErrNotConfigured.Error()
	case errors.Is(err, backend.ErrTransport):
		return msgTransport
	case errors.Is(err, backend.ErrMalformedResponse):
		return msgMalformed
	default:
		return msgGeneric
	}
}
