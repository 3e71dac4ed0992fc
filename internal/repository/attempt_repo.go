package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/hrsync_server/internal/model"
)

type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Create(attempt *model.PaymentAttempt) error {
	return r.db.Create(attempt).Error
}

// LastFailure 最近一次失败的尝试（建单失败或验签失败）
func (r *AttemptRepository) LastFailure(userID int64) (*model.PaymentAttempt, error) {
	var attempt model.PaymentAttempt
	err := r.db.Where("user_id = ? AND outcome IN ?", userID,
		[]string{model.AttemptOrderFailed, model.AttemptVerifyFailed}).
		Order("id DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) ListByUser(userID int64, limit int) ([]model.PaymentAttempt, error) {
	var attempts []model.PaymentAttempt
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
