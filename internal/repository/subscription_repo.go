package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/hrsync_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) GetByID(id int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByOrderID(orderID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("razorpay_order_id = ?", orderID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// MarkActive 只激活 pending 的订阅，返回是否命中
func (r *SubscriptionRepository) MarkActive(id int64, paymentID string, startedAt, expiresAt time.Time) (bool, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("id = ? AND status = ?", id, model.SubscriptionPending).
		Updates(map[string]interface{}{
			"status":              model.SubscriptionActive,
			"razorpay_payment_id": paymentID,
			"started_at":          startedAt,
			"expires_at":          expiresAt,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *SubscriptionRepository) MarkFailed(id int64) error {
	return r.db.Model(&model.Subscription{}).
		Where("id = ? AND status = ?", id, model.SubscriptionPending).
		Update("status", model.SubscriptionFailed).Error
}

// CountStalePending 创建早于 before 的 pending 订单数
func (r *SubscriptionRepository) CountStalePending(before time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).
		Where("status = ? AND created_at < ?", model.SubscriptionPending, before).
		Count(&count).Error
	return count, err
}

// ExpireStalePending 把长期未支付的订单标记为 expired
func (r *SubscriptionRepository) ExpireStalePending(before time.Time) (int64, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("status = ? AND created_at < ?", model.SubscriptionPending, before).
		Update("status", model.SubscriptionExpired)
	return result.RowsAffected, result.Error
}

// ExpireLapsed 到期的 active 订阅标记为 expired
func (r *SubscriptionRepository) ExpireLapsed(now time.Time) (int64, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("status = ? AND expires_at < ?", model.SubscriptionActive, now).
		Update("status", model.SubscriptionExpired)
	return result.RowsAffected, result.Error
}

// ActiveByUser 用户当前有效的订阅
func (r *SubscriptionRepository) ActiveByUser(userID int64) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
		Order("expires_at DESC").
		Find(&subs).Error
	return subs, err
}
