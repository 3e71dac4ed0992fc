// Package llm 封装托管的文本补全服务（Gemini / OpenAI），对上只暴露单次 Complete 调用。
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/qs3c/hrsync_server/config"
)

var (
	ErrNoCredential    = errors.New("chat api key is not configured")
	ErrUnknownProvider = errors.New("unknown chat provider")
)

// Completer 单次补全，不重试
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError 上游返回的 HTTP 状态，调用方据此区分 401/429 等情况
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %v", e.Status, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Options 生成参数
type Options struct {
	Model           string
	MaxOutputTokens int32
	Temperature     float32
	TopP            float32
	TopK            int32
}

func optionsFromConfig(cfg config.ChatConfig) Options {
	return Options{
		Model:           cfg.Model,
		MaxOutputTokens: int32(cfg.MaxOutputTokens),
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		TopK:            int32(cfg.TopK),
	}
}

// New 按配置选择提供方
func New(ctx context.Context, cfg config.ChatConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoCredential
	}

	switch cfg.Provider {
	case "", "gemini":
		return NewGemini(ctx, cfg.APIKey, optionsFromConfig(cfg))
	case "openai":
		return NewOpenAI(cfg.APIKey, "", optionsFromConfig(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
