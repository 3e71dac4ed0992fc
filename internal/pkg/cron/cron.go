package cron

import (
	"log"
	"sync"
	"time"
)

// AttemptSweeper 清理空闲的结账尝试
type AttemptSweeper interface {
	Sweep(maxIdle time.Duration) int
}

// SubscriptionExpirer 本地计费模式下的订阅过期处理
type SubscriptionExpirer interface {
	ExpireStalePending(before time.Time) (int64, error)
	ExpireLapsed(now time.Time) (int64, error)
}

type Service struct {
	sweeper       AttemptSweeper
	subs          SubscriptionExpirer // remote 模式为 nil
	idle          time.Duration
	pendingExpire time.Duration
	sweepEvery    time.Duration
	expireEvery   time.Duration
	now           func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewService(sweeper AttemptSweeper, subs SubscriptionExpirer, idleMinutes, pendingExpireHours int) *Service {
	if idleMinutes <= 0 {
		idleMinutes = 30
	}
	if pendingExpireHours <= 0 {
		pendingExpireHours = 24
	}
	return &Service{
		sweeper:       sweeper,
		subs:          subs,
		idle:          time.Duration(idleMinutes) * time.Minute,
		pendingExpire: time.Duration(pendingExpireHours) * time.Hour,
		sweepEvery:    time.Minute,
		expireEvery:   time.Hour,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.run(s.sweepEvery, func() { s.sweepAttempts() })
	if s.subs != nil {
		go s.run(s.expireEvery, func() { s.expireSubscriptions() })
	}
	log.Println("Cron service started (checkout sweep + subscription expiry)")
}

// Stop 停止定时任务，可重复调用
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		log.Println("Cron service stopped")
	})
}

func (s *Service) run(every time.Duration, job func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			job()
		}
	}
}

// sweepAttempts 清理空闲超时的结账尝试
func (s *Service) sweepAttempts() int {
	if s.sweeper == nil {
		return 0
	}
	removed := s.sweeper.Sweep(s.idle)
	if removed > 0 {
		log.Printf("Checkout sweep: removed %d idle attempts", removed)
	}
	return removed
}

// expireSubscriptions 过期长时间未支付的订单和已到期的订阅
func (s *Service) expireSubscriptions() (stale, lapsed int64) {
	if s.subs == nil {
		return 0, 0
	}

	now := s.now()
	stale, err := s.subs.ExpireStalePending(now.Add(-s.pendingExpire))
	if err != nil {
		log.Printf("Failed to expire stale pending subscriptions: %v", err)
	}
	lapsed, err = s.subs.ExpireLapsed(now)
	if err != nil {
		log.Printf("Failed to expire lapsed subscriptions: %v", err)
	}

	if stale > 0 || lapsed > 0 {
		log.Printf("Subscription expiry summary: stale_pending=%d, lapsed=%d", stale, lapsed)
	}
	return stale, lapsed
}

// RunNow 立即执行一轮（用于测试或手动触发）
func (s *Service) RunNow() (swept int, stale, lapsed int64) {
	log.Println("Manual janitor run triggered...")
	swept = s.sweepAttempts()
	stale, lapsed = s.expireSubscriptions()
	return swept, stale, lapsed
}
