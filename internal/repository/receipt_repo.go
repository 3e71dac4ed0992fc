package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/hrsync_server/internal/model"
)

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Upsert 每个用户只保留最近一次成功支付
func (r *ReceiptRepository) Upsert(receipt *model.Receipt) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_name", "amount", "currency", "years", "employees", "subscription_id", "paid_at", "updated_at",
		}),
	}).Create(receipt).Error
}

func (r *ReceiptRepository) GetByUserID(userID int64) (*model.Receipt, error) {
	var receipt model.Receipt
	err := r.db.Where("user_id = ?", userID).First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
