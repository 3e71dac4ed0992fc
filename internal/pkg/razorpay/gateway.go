package razorpay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/qs3c/hrsync_server/config"
)

var (
	ErrGatewayUnavailable = errors.New("Failed to load Razorpay. Please refresh and try again.")
	ErrNotConfigured      = errors.New("Payment gateway is not configured")
)

// Gateway 托管收银台。Ensure 按需检查 checkout 脚本是否可用，成功后在进程生命周期内缓存
type Gateway struct {
	keyID     string
	scriptURL string
	brand     string
	theme     string
	http      *http.Client

	mu     sync.Mutex
	loaded bool
}

func NewGateway(cfg config.RazorpayConfig) *Gateway {
	return &Gateway{
		keyID:     cfg.KeyID,
		scriptURL: cfg.CheckoutScriptURL,
		brand:     cfg.BrandName,
		theme:     cfg.ThemeColor,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Ensure 确保收银台可用。失败不缓存，下一次调用会重试
func (g *Gateway) Ensure(ctx context.Context) error {
	if g.keyID == "" {
		return ErrNotConfigured
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.loaded {
		return nil
	}

	if g.scriptURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, g.scriptURL, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		resp, err := g.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%w: script status %d", ErrGatewayUnavailable, resp.StatusCode)
		}
	}

	g.loaded = true
	return nil
}

type Prefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Theme struct {
	Color string `json:"color"`
}

// CheckoutOptions 前端打开收银台所需参数，金额来自后端订单
type CheckoutOptions struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// CheckoutOptions 组装收银台参数
func (g *Gateway) CheckoutOptions(orderID string, amount int64, currency, planName string, years int, prefill Prefill) CheckoutOptions {
	if currency == "" {
		currency = "INR"
	}
	if prefill.Name == "" {
		prefill.Name = "User"
	}
	return CheckoutOptions{
		Key:         g.keyID,
		Amount:      amount,
		Currency:    currency,
		Name:        g.brand,
		Description: Description(planName, years),
		OrderID:     orderID,
		Prefill:     prefill,
		Theme:       Theme{Color: g.theme},
	}
}

// Description 形如 "Growth Plan - 2 Years"
func Description(planName string, years int) string {
	unit := "Year"
	if years > 1 {
		unit = "Years"
	}
	return fmt.Sprintf("%s Plan - %d %s", planName, years, unit)
}
