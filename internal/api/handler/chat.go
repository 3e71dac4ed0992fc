package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/service"
)

// ChatHandler 聊天转发。响应直接是 {reply}，不走统一响应体
type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Chat POST /api/ai-chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &dto.ChatResponse{Reply: service.ReplyInvalidMessage})
		return
	}

	reply, status := h.chatService.Relay(c.Request.Context(), req.Message, req.ConversationHistory)
	c.JSON(status, &dto.ChatResponse{Reply: reply})
}

// RateLimited 限流时的回复
func (h *ChatHandler) RateLimited(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, &dto.ChatResponse{Reply: service.ReplyRateLimited})
}
