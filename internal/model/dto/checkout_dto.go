package dto

import (
	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/pkg/pricing"
)

type SelectPlanRequest struct {
	PlanID int64 `json:"planId" binding:"required"`
}

type SetYearsRequest struct {
	Years int `json:"years" binding:"required"`
}

type SetCouponRequest struct {
	Coupon string `json:"coupon"`
}

// QuoteRequest 无状态报价（定价页实时预览）
type QuoteRequest struct {
	PlanID  int64  `form:"planId" binding:"required"`
	Years   int    `form:"years" binding:"required"`
	Coupon  string `form:"coupon"`
	Applied bool   `form:"applied"`
}

type QuoteResponse struct {
	Plan      model.Plan   `json:"plan"`
	Years     int          `json:"years"`
	Coupon    string       `json:"coupon"`
	Breakdown pricing.View `json:"breakdown"`
	Payable   string       `json:"payable"`
}

// PlansResponse Fallback=true 表示远程目录不可用，展示的是内置套餐
type PlansResponse struct {
	Plans    []model.Plan `json:"plans"`
	Fallback bool         `json:"fallback"`
}

// ProfileResponse 个人中心
type ProfileResponse struct {
	User          *UserInfo            `json:"user"`
	Subscription  *model.Receipt       `json:"subscription"`
	Subscriptions []model.Subscription `json:"subscriptions,omitempty"`
}
