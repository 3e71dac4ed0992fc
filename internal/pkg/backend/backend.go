// Package backend 是计费/网站后端（API_BASE）的类型化客户端。
// 所有响应在边界处校验，形状不对直接返回 ErrMalformedResponse，不会把半成品交给业务层。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qs3c/hrsync_server/config"
	"github.com/qs3c/hrsync_server/internal/model"
)

var (
	ErrNotConfigured     = errors.New("API configuration missing")
	ErrTransport         = errors.New("backend unreachable")
	ErrMalformedResponse = errors.New("malformed backend response")
)

// APIError 后端返回的非 2xx，Message 原样展示给用户
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// ID 后端的不透明标识，兼容数字和字符串两种写法
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type CreateOrderRequest struct {
	PlanID int64   `json:"planId"`
	Years  int     `json:"years"`
	Coupon *string `json:"coupon"`
	UserID int64   `json:"userId"`
}

// Order 后端创建的订单，Amount 是最小货币单位的权威金额
type Order struct {
	OrderID        string `json:"orderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency,omitempty"`
	SubscriptionID ID     `json:"subscriptionId"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string  `json:"razorpay_order_id"`
	RazorpayPaymentID string  `json:"razorpay_payment_id"`
	RazorpaySignature string  `json:"razorpay_signature"`
	SubscriptionID    string  `json:"subscriptionId"`
	UserID            int64   `json:"userId"`
	Coupon            *string `json:"coupon"`
}

type VerifyResult struct {
	SubscriptionID ID `json:"subscriptionId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// User 后端账户
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.BackendConfig) *Client {
	httpClient := &http.Client{}
	if cfg.TimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
}

// Configured API_BASE 是否已配置
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// FetchPlans 拉取套餐目录，非法套餐在此处丢弃
func (c *Client) FetchPlans(ctx context.Context) ([]model.Plan, error) {
	var plans []model.Plan
	if err := c.do(ctx, http.MethodGet, "/api/billing/plans", "", nil, &plans); err != nil {
		return nil, withDefault(err, "Failed to fetch plans")
	}

	valid := make([]model.Plan, 0, len(plans))
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			continue
		}
		valid = append(valid, p)
	}
	return valid, nil
}

// CreateOrder 创建订单，需要会话中的 bearer token
func (c *Client) CreateOrder(ctx context.Context, token string, req *CreateOrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/api/billing/create-order", token, req, &order); err != nil {
		return nil, withDefault(err, "Failed to create order")
	}
	if order.OrderID == "" || order.Amount <= 0 {
		return nil, fmt.Errorf("%w: order id or amount missing", ErrMalformedResponse)
	}
	return &order, nil
}

// VerifyPayment 服务端验签
func (c *Client) VerifyPayment(ctx context.Context, token string, req *VerifyPaymentRequest) (*VerifyResult, error) {
	var result VerifyResult
	if err := c.do(ctx, http.MethodPost, "/api/billing/verify-payment", token, req, &result); err != nil {
		return nil, withDefault(err, "Payment verification failed")
	}
	return &result, nil
}

func (c *Client) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/website/login", "", req, &result); err != nil {
		return nil, withDefault(err, "Login failed")
	}
	if result.Token == "" || result.User.ID == 0 {
		return nil, fmt.Errorf("%w: token or user missing", ErrMalformedResponse)
	}
	return &result, nil
}

func (c *Client) Register(ctx context.Context, req *RegisterRequest) error {
	return withDefault(c.do(ctx, http.MethodPost, "/api/website/register", "", req, nil), "Registration failed")
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// errorMessage 取后端返回的 message
func errorMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return ""
}

// withDefault 后端没给 message 时使用各接口自己的默认提示
func withDefault(err error, message string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message == "" {
		apiErr.Message = message
	}
	return err
}
