package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/razorpay/razorpay-go"

	"github.com/qs3c/hrsync_server/config"
)

var (
	ErrOrderCreationFailed = errors.New("failed to create razorpay order")
	ErrSecretMissing       = errors.New("razorpay key secret is empty")
)

// Client 服务端 Razorpay 客户端：建单 + 验签（本地计费模式使用）
type Client struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
}

func NewClient(cfg config.RazorpayConfig) *Client {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		log.Println("WARNING: Razorpay key id or secret is empty, order creation will fail")
	}
	return &Client{
		client:    razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
	}
}

// CreateOrder 创建订单，amount 为最小货币单位，返回 Razorpay 订单号
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	if c.keySecret == "" {
		return "", ErrSecretMissing
	}

	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	order, err := c.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	orderID, _ := order["id"].(string)
	if orderID == "" {
		return "", fmt.Errorf("%w: response has no order id", ErrOrderCreationFailed)
	}

	log.Printf("Razorpay order created: id=%s amount=%d %s receipt=%s", orderID, amount, currency, receipt)
	return orderID, nil
}

// VerifySignature 校验支付回调签名：HMAC_SHA256(order_id|payment_id, key_secret)
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	if c.keySecret == "" {
		return false
	}
	expected := Sign(orderID, paymentID, c.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign 生成与 Razorpay 一致的回调签名
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
