package handler

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
	"github.com/qs3c/hrsync_server/internal/service"
)

func setupCatalogRouter() *gin.Engine {
	handler := NewCatalogHandler(service.NewCatalogService(failingPlans{}, 0))
	router := gin.New()
	router.GET("/plans", handler.List)
	router.GET("/quote", handler.Quote)
	return router
}

func TestCatalogHandler_List_Fallback(t *testing.T) {
	router := setupCatalogRouter()

	resp := parseResponse(t, performRequest(router, "GET", "/plans", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)

	var plans struct {
		Plans []struct {
			Name string `json:"name"`
		} `json:"plans"`
		Fallback bool `json:"fallback"`
	}
	decodeData(t, resp, &plans)
	assert.True(t, plans.Fallback)
	require.Len(t, plans.Plans, 3)
	assert.Equal(t, "Starter", plans.Plans[0].Name)
}

func TestCatalogHandler_Quote(t *testing.T) {
	router := setupCatalogRouter()

	resp := parseResponse(t, performRequest(router, "GET", "/quote?planId=1&years=3", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)

	var quote dto.QuoteResponse
	decodeData(t, resp, &quote)
	// Starter 499 * 12 * 3 = 17964，3 年 10% 折扣
	assert.Equal(t, "17964.00", quote.Breakdown.BaseAmount)
	assert.Equal(t, "1796.40", quote.Breakdown.YearlyDiscountAmount)
	assert.Equal(t, "16167.60", quote.Payable)
}

func TestCatalogHandler_Quote_Errors(t *testing.T) {
	router := setupCatalogRouter()

	resp := parseResponse(t, performRequest(router, "GET", "/quote?planId=1&years=9", nil))
	assert.Equal(t, response.CodeParamError, resp.Code)

	resp = parseResponse(t, performRequest(router, "GET", "/quote?planId=42&years=1", nil))
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)

	resp = parseResponse(t, performRequest(router, "GET", "/quote?years=1", nil))
	assert.Equal(t, response.CodeParamError, resp.Code)
}
