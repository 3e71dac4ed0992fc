package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/pkg/jwt"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/pkg/ws"
)

const wsSecret = "ws-test-secret"

func TestWebSocketHandler_RejectsMissingToken(t *testing.T) {
	handler := NewWebSocketHandler(ws.NewHub(), wsSecret, nil)
	router := gin.New()
	router.GET("/ws", handler.Handle)

	w := performRequest(router, "GET", "/ws", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(router, "GET", "/ws?token=bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocketHandler_ReceivesAuthChanged(t *testing.T) {
	hub := ws.NewHub()
	handler := NewWebSocketHandler(hub, wsSecret, []string{"*"})
	router := gin.New()
	router.GET("/ws", handler.Handle)

	srv := httptest.NewServer(router)
	defer srv.Close()

	token, err := jwt.GenerateToken(77, wsSecret, 1)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline(77) }, time.Second, 10*time.Millisecond)

	hub.OnAuthChanged(&session.Event{Type: session.EventAuthChanged, UserID: 77, LoggedIn: false})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string        `json:"type"`
		Data session.Event `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, session.EventAuthChanged, msg.Type)
	assert.Equal(t, int64(77), msg.Data.UserID)
	assert.False(t, msg.Data.LoggedIn)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	handler := NewWebSocketHandler(ws.NewHub(), wsSecret, []string{"https://hrsync.in"})

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, handler.checkOrigin(req))

	req.Header.Set("Origin", "https://hrsync.in")
	assert.True(t, handler.checkOrigin(req))
}
