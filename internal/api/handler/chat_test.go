package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/api/middleware"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/llm"
	"github.com/qs3c/hrsync_server/internal/service"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

func chatRouter(completer llm.Completer) *gin.Engine {
	handler := NewChatHandler(service.NewChatService(completer))
	router := gin.New()
	router.POST("/ai-chat", middleware.RateLimit(0.001, 2, handler.RateLimited), handler.Chat)
	return router
}

func chatReply(t *testing.T, body []byte) string {
	var resp dto.ChatResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Reply
}

func TestChatHandler_Success(t *testing.T) {
	router := chatRouter(stubCompleter{reply: "Payroll is included in Growth."})

	w := performRequest(router, "POST", "/ai-chat", map[string]interface{}{
		"message": "Does Growth include payroll?",
		"conversationHistory": []map[string]string{
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "Hello!"},
		},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Payroll is included in Growth.", chatReply(t, w.Body.Bytes()))
}

func TestChatHandler_InvalidMessage(t *testing.T) {
	router := chatRouter(stubCompleter{reply: "x"})

	w := performRequest(router, "POST", "/ai-chat", map[string]interface{}{"message": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ReplyInvalidMessage, chatReply(t, w.Body.Bytes()))

	w = performRequest(router, "POST", "/ai-chat", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_UpstreamRateLimited(t *testing.T) {
	router := chatRouter(stubCompleter{err: &llm.StatusError{Status: 429, Err: context.DeadlineExceeded}})

	w := performRequest(router, "POST", "/ai-chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, service.ReplyRateLimited, chatReply(t, w.Body.Bytes()))
}

func TestChatHandler_NotConfigured(t *testing.T) {
	router := chatRouter(nil)

	w := performRequest(router, "POST", "/ai-chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, service.ReplyConfigError, chatReply(t, w.Body.Bytes()))
}

func TestChatHandler_LocalRateLimit(t *testing.T) {
	router := chatRouter(stubCompleter{reply: "ok"})

	for i := 0; i < 2; i++ {
		w := performRequest(router, "POST", "/ai-chat", map[string]string{"message": "hello"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := performRequest(router, "POST", "/ai-chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, service.ReplyRateLimited, chatReply(t, w.Body.Bytes()))
}
