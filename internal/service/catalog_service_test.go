package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/model/dto"
)

type stubPlanSource struct {
	plans []model.Plan
	err   error
	calls int
}

func (s *stubPlanSource) FetchPlans(ctx context.Context) ([]model.Plan, error) {
	s.calls++
	return s.plans, s.err
}

func remotePlans() []model.Plan {
	return []model.Plan{
		model.NewPlan(7, "Scale", 1499, 30, 80, []string{"Payroll"}, map[string]float64{"1": 5, "2": 10}),
	}
}

func TestCatalogService_Plans_FromSource(t *testing.T) {
	source := &stubPlanSource{plans: remotePlans()}
	service := NewCatalogService(source, time.Minute)

	plans, fallback := service.Plans(context.Background())
	assert.False(t, fallback)
	require.Len(t, plans, 1)
	assert.Equal(t, "Scale", plans[0].Name)
}

func TestCatalogService_Plans_FallbackOnError(t *testing.T) {
	source := &stubPlanSource{err: errUpstream}
	service := NewCatalogService(source, time.Minute)

	plans, fallback := service.Plans(context.Background())
	assert.True(t, fallback)
	require.Len(t, plans, 3)
	assert.Equal(t, "Starter", plans[0].Name)
	assert.Equal(t, "Growth", plans[1].Name)
	assert.Equal(t, "Pro", plans[2].Name)

	// 回退结果不缓存，下次仍会请求来源
	service.Plans(context.Background())
	assert.Equal(t, 2, source.calls)
}

func TestCatalogService_Plans_FallbackOnEmpty(t *testing.T) {
	source := &stubPlanSource{plans: []model.Plan{}}
	service := NewCatalogService(source, time.Minute)

	plans, fallback := service.Plans(context.Background())
	assert.True(t, fallback)
	assert.Len(t, plans, 3)
}

func TestCatalogService_Plans_DropsInvalid(t *testing.T) {
	plans := append(remotePlans(), model.NewPlan(8, "Broken", 0, 1, 10, nil, nil))
	service := NewCatalogService(&stubPlanSource{plans: plans}, time.Minute)

	got, fallback := service.Plans(context.Background())
	assert.False(t, fallback)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
}

func TestCatalogService_Plans_CacheExpires(t *testing.T) {
	source := &stubPlanSource{plans: remotePlans()}
	service := NewCatalogService(source, time.Minute)
	now := time.Now()
	service.now = func() time.Time { return now }

	service.Plans(context.Background())
	service.Plans(context.Background())
	assert.Equal(t, 1, source.calls)

	now = now.Add(2 * time.Minute)
	service.Plans(context.Background())
	assert.Equal(t, 2, source.calls)

	service.Invalidate()
	service.Plans(context.Background())
	assert.Equal(t, 3, source.calls)
}

func TestCatalogService_FindPlan(t *testing.T) {
	service := NewCatalogService(&stubPlanSource{err: errUpstream}, 0)

	plan, ok := service.FindPlan(context.Background(), 2)
	require.True(t, ok)
	assert.Equal(t, "Growth", plan.Name)

	_, ok = service.FindPlan(context.Background(), 99)
	assert.False(t, ok)
}

func TestCatalogService_Quote(t *testing.T) {
	service := NewCatalogService(&stubPlanSource{err: errUpstream}, 0)

	// Growth 999 * 12 = 11988，1 年 6% 折扣后 11268.72，再减 10% 优惠码
	resp, err := service.Quote(context.Background(), &dto.QuoteRequest{
		PlanID:  2,
		Years:   1,
		Coupon:  " hrsync ",
		Applied: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "HRSYNC", resp.Coupon)
	assert.Equal(t, "11988.00", resp.Breakdown.BaseAmount)
	assert.Equal(t, "719.28", resp.Breakdown.YearlyDiscountAmount)
	assert.Equal(t, "1126.87", resp.Breakdown.CouponDiscountAmount)
	assert.Equal(t, "10141.85", resp.Payable)
	assert.True(t, resp.Breakdown.CouponApplied)
}

func TestCatalogService_Quote_Errors(t *testing.T) {
	service := NewCatalogService(&stubPlanSource{err: errUpstream}, 0)

	_, err := service.Quote(context.Background(), &dto.QuoteRequest{PlanID: 2, Years: 6})
	assert.ErrorIs(t, err, ErrInvalidYears)

	_, err = service.Quote(context.Background(), &dto.QuoteRequest{PlanID: 99, Years: 1})
	assert.ErrorIs(t, err, ErrPlanNotFound)
}
