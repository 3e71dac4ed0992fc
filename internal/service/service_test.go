package service

import (
	"context"
	"errors"
	"sync"
)

// fakeProvider 可控的支付渠道
type fakeProvider struct {
	mu        sync.Mutex
	orderID   string
	createErr error
	validSig  bool
	amounts   []int64
}

func (p *fakeProvider) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return "", p.createErr
	}
	p.amounts = append(p.amounts, amount)
	return p.orderID, nil
}

func (p *fakeProvider) VerifySignature(orderID, paymentID, signature string) bool {
	return p.validSig
}

// fakeCompleter 固定回复的补全服务
type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompt = prompt
	return c.reply, c.err
}

var errUpstream = errors.New("upstream down")
