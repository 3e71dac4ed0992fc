package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/pricing"
)

var (
	ErrPlanNotFound = errors.New("Plan not found")
	ErrInvalidYears = errors.New("Invalid subscription duration")
)

// PlanSource 套餐来源：远程后端或本地 plans 表
type PlanSource interface {
	FetchPlans(ctx context.Context) ([]model.Plan, error)
}

// CatalogService 套餐目录。来源失败或为空时回退到内置套餐，回退结果不缓存
type CatalogService struct {
	source PlanSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	cached  []model.Plan
	expires time.Time
}

func NewCatalogService(source PlanSource, ttl time.Duration) *CatalogService {
	return &CatalogService{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Plans 返回套餐列表，fallback 表示使用了内置套餐
func (s *CatalogService) Plans(ctx context.Context) ([]model.Plan, bool) {
	if plans, ok := s.fromCache(); ok {
		return plans, false
	}

	plans, err := s.source.FetchPlans(ctx)
	if err != nil {
		log.Printf("Catalog fetch failed, using default plans: %v", err)
		return model.DefaultPlans(), true
	}

	valid := make([]model.Plan, 0, len(plans))
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			log.Printf("Catalog dropped plan %d: %v", p.ID, err)
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return model.DefaultPlans(), true
	}

	if s.ttl > 0 {
		s.mu.Lock()
		s.cached = valid
		s.expires = s.now().Add(s.ttl)
		s.mu.Unlock()
	}
	return valid, false
}

func (s *CatalogService) fromCache() ([]model.Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cached == nil || !s.now().Before(s.expires) {
		return nil, false
	}
	plans := make([]model.Plan, len(s.cached))
	copy(plans, s.cached)
	return plans, true
}

// Invalidate 丢弃缓存
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// FindPlan 在当前目录中查找套餐
func (s *CatalogService) FindPlan(ctx context.Context, planID int64) (model.Plan, bool) {
	plans, _ := s.Plans(ctx)
	for _, p := range plans {
		if p.ID == planID {
			return p, true
		}
	}
	return model.Plan{}, false
}

// Quote 无状态报价
func (s *CatalogService) Quote(ctx context.Context, req *dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if !pricing.ValidYears(req.Years) {
		return nil, ErrInvalidYears
	}
	plan, ok := s.FindPlan(ctx, req.PlanID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	coupon := pricing.NormalizeCoupon(req.Coupon)
	breakdown := pricing.Compute(plan, req.Years, coupon, req.Applied)
	return &dto.QuoteResponse{
		Plan:      plan,
		Years:     req.Years,
		Coupon:    coupon,
		Breakdown: breakdown.View(),
		Payable:   breakdown.Payable().StringFixed(2),
	}, nil
}
