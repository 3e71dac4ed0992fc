package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/api/middleware"
	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// decodeData 把统一响应体里的 data 解到 out
func decodeData(t *testing.T, resp response.Response, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// asUser 模拟已通过 JWT 认证
func asUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

// failingPlans 远程目录不可用，目录回退到内置套餐
type failingPlans struct{}

func (failingPlans) FetchPlans(ctx context.Context) ([]model.Plan, error) {
	return nil, context.DeadlineExceeded
}

// fakeProvider 支付渠道
type fakeProvider struct {
	orderID  string
	validSig bool
}

func (p *fakeProvider) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	return p.orderID, nil
}

func (p *fakeProvider) VerifySignature(orderID, paymentID, signature string) bool {
	return p.validSig
}
