package model

import (
	"time"
)

// Receipt 最近一次验签成功的购买记录，每个用户一条，下次成功时覆盖
type Receipt struct {
	ID             int64     `gorm:"primaryKey" json:"-"`
	UserID         int64     `gorm:"uniqueIndex;not null" json:"userId"`
	PlanName       string    `gorm:"size:50" json:"planName"`
	Amount         int64     `json:"amount"` // 后端确认的金额，最小货币单位
	Currency       string    `gorm:"size:10" json:"currency"`
	Years          int       `json:"years"`
	Employees      string    `gorm:"size:20" json:"employees"`
	SubscriptionID string    `gorm:"size:100" json:"subscriptionId"`
	PaidAt         time.Time `json:"paidAt"`
	UpdatedAt      time.Time `json:"-"`
}

func (Receipt) TableName() string {
	return "receipts"
}
