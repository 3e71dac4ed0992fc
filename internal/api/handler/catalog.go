package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
	"github.com/qs3c/hrsync_server/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// List 套餐列表
// GET /api/plans
func (h *CatalogHandler) List(c *gin.Context) {
	plans, fallback := h.catalogService.Plans(c.Request.Context())
	response.Success(c, &dto.PlansResponse{
		Plans:    plans,
		Fallback: fallback,
	})
}

// Quote 价格预览
// GET /api/pricing/quote?planId=2&years=1&coupon=HRSYNC&applied=true
func (h *CatalogHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	resp, err := h.catalogService.Quote(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidYears):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
