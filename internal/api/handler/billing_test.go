package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/repository"
	"github.com/qs3c/hrsync_server/internal/service"
	"github.com/qs3c/hrsync_server/internal/testutil"
)

func setupBillingRouter(t *testing.T) (*gin.Engine, *fakeProvider, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.SeedPlans(t, db)

	provider := &fakeProvider{orderID: "order_local_1", validSig: true}
	handler := NewBillingHandler(service.NewBillingService(
		repository.NewPlanRepository(db),
		repository.NewSubscriptionRepository(db),
		provider, "INR"))

	router := gin.New()
	router.GET("/billing/plans", handler.Plans)
	router.POST("/billing/create-order", asUser(9), handler.CreateOrder)
	router.POST("/billing/verify-payment", asUser(9), handler.VerifyPayment)

	return router, provider, func() { testutil.CleanupTestDB(t, db) }
}

func TestBillingHandler_Plans(t *testing.T) {
	router, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	w := performRequest(router, "GET", "/billing/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var plans []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	require.Len(t, plans, 3)
	assert.Equal(t, "Starter", plans[0]["name"])
	assert.Equal(t, float64(499), plans[0]["monthlyPrice"])
}

func TestBillingHandler_CreateAndVerify(t *testing.T) {
	router, _, cleanup := setupBillingRouter(t)
	defer cleanup()

	w := performRequest(router, "POST", "/billing/create-order", map[string]interface{}{
		"planId": 1,
		"years":  1,
		"coupon": nil,
		"userId": 12345,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var order dto.CreateOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "order_local_1", order.OrderID)
	// Starter 499 * 12 = 5988，1 年 5% 折扣后 5688.60
	assert.Equal(t, int64(568860), order.Amount)

	w = performRequest(router, "POST", "/billing/verify-payment", map[string]interface{}{
		"razorpay_order_id":   order.OrderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "sig",
		"subscriptionId":      strconv.FormatInt(order.SubscriptionID, 10),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var verified dto.VerifyPaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	assert.Equal(t, order.SubscriptionID, verified.SubscriptionID)
	assert.Equal(t, "active", verified.Status)
}

func TestBillingHandler_Rejections(t *testing.T) {
	router, provider, cleanup := setupBillingRouter(t)
	defer cleanup()

	w := performRequest(router, "POST", "/billing/create-order", map[string]interface{}{
		"planId": 1, "years": 1, "coupon": "FREE50",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid coupon code"}`, w.Body.String())

	w = performRequest(router, "POST", "/billing/create-order", map[string]interface{}{"planId": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "POST", "/billing/create-order", map[string]interface{}{"planId": 1, "years": 1})
	require.Equal(t, http.StatusOK, w.Code)

	provider.validSig = false
	w = performRequest(router, "POST", "/billing/verify-payment", map[string]interface{}{
		"razorpay_order_id":   "order_local_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "forged",
		"subscriptionId":      nil,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Payment verification failed: invalid signature"}`, w.Body.String())
}
