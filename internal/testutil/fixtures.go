package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/hrsync_server/internal/model"
)

// TestPassword 测试用户的明文密码
const TestPassword = "password123"

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试用户，密码为 TestPassword
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &model.User{
		Name:         fmt.Sprintf("Company %d", nextSeq()),
		Email:        fmt.Sprintf("test_%d@example.com", nextSeq()),
		Phone:        "9876543210",
		PasswordHash: string(hash),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithName 设置公司名
func WithName(name string) func(*model.User) {
	return func(u *model.User) {
		u.Name = name
	}
}

// SeedPlans 写入默认套餐
func SeedPlans(t *testing.T, db *gorm.DB) []model.Plan {
	t.Helper()

	plans := model.DefaultPlans()
	if err := db.Create(&plans).Error; err != nil {
		t.Fatalf("Failed to seed plans: %v", err)
	}
	return plans
}

// TestSubscription 创建本地订阅（默认 pending）
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		UserID:          userID,
		PlanID:          2,
		PlanName:        "Growth",
		Years:           1,
		AmountMinor:     1126872,
		Currency:        "INR",
		RazorpayOrderID: fmt.Sprintf("order_%d", nextSeq()),
		Status:          model.SubscriptionPending,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithStatus 设置订阅状态
func WithStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.CreatedAt = at
	}
}

// TestReceipt 创建回执
func TestReceipt(t *testing.T, db *gorm.DB, userID int64) *model.Receipt {
	t.Helper()

	receipt := &model.Receipt{
		UserID:         userID,
		PlanName:       "Growth",
		Amount:         1126872,
		Currency:       "INR",
		Years:          1,
		Employees:      "20-50",
		SubscriptionID: "sub_1",
		PaidAt:         time.Now(),
	}

	if err := db.Create(receipt).Error; err != nil {
		t.Fatalf("Failed to create test receipt: %v", err)
	}

	return receipt
}
