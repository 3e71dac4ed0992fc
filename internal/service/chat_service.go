package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/llm"
)

const (
	ReplyInvalidMessage = "Please provide a valid message."
	ReplyConfigError    = "AI service configuration error. Please contact support@hrsync.com"
	ReplyAuthFailed     = "API authentication failed. Please check your API key configuration."
	ReplyRateLimited    = "Too many requests. Please try again in a moment."
	ReplyUnavailable    = "Having trouble connecting to the AI service. Please try again or contact support@hrsync.com"
	ReplyEmpty          = "Could you please rephrase your question?"
)

// hrContext 产品知识，作为每次补全的前缀
const hrContext = `You are the HRSync assistant. HRSync is an HRMS for Indian companies covering attendance, leave management, payroll, employee records, analytics, compliance, API access and invoicing.

Plans (per month): Starter Rs 499 for 1-10 employees, Growth Rs 999 for 20-50 employees, Pro Rs 1899 for 50-100 employees, Enterprise with custom pricing. Multi-year subscriptions get a yearly discount. Every plan starts with a 30-day free trial.

Answer in 2-3 short sentences, in plain text without emojis. For anything you cannot answer, point the user to support@hrsync.com.`

// ChatService 聊天转发，无会话状态，历史由调用方携带
type ChatService struct {
	completer llm.Completer
}

// NewChatService completer 为 nil 表示未配置密钥
func NewChatService(completer llm.Completer) *ChatService {
	return &ChatService{completer: completer}
}

// Relay 返回回复和 HTTP 状态码
func (s *ChatService) Relay(ctx context.Context, message string, history []dto.ChatMessage) (string, int) {
	if strings.TrimSpace(message) == "" {
		return ReplyInvalidMessage, http.StatusBadRequest
	}
	if s.completer == nil {
		return ReplyConfigError, http.StatusInternalServerError
	}

	reply, err := s.completer.Complete(ctx, BuildPrompt(message, history))
	if err != nil {
		log.Printf("Chat completion failed: %v", err)
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.Status {
			case http.StatusUnauthorized:
				return ReplyAuthFailed, http.StatusUnauthorized
			case http.StatusTooManyRequests:
				return ReplyRateLimited, http.StatusTooManyRequests
			}
		}
		return ReplyUnavailable, http.StatusInternalServerError
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ReplyEmpty, http.StatusOK
	}
	return reply, http.StatusOK
}

// BuildPrompt 拼接产品知识、历史对话和本轮消息
func BuildPrompt(message string, history []dto.ChatMessage) string {
	var b strings.Builder
	b.WriteString(hrContext)
	b.WriteString("\n\n")

	if len(history) > 0 {
		lines := make([]string, 0, len(history))
		for _, m := range history {
			speaker := "Assistant"
			if m.Role == "user" {
				speaker = "User"
			}
			lines = append(lines, speaker+": "+m.Content)
		}
		b.WriteString("CONVERSATION SO FAR:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\n\nRespond naturally and helpfully.")
	return b.String()
}
