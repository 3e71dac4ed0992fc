package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/hrsync_server/internal/model"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// List 按月价升序
func (r *PlanRepository) List() ([]model.Plan, error) {
	var plans []model.Plan
	err := r.db.Order("monthly_price ASC, id ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) GetByID(id int64) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// SeedDefaults 表为空时写入默认套餐，返回写入条数
func (r *PlanRepository) SeedDefaults() (int, error) {
	var count int64
	if err := r.db.Model(&model.Plan{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	plans := model.DefaultPlans()
	if err := r.db.Create(&plans).Error; err != nil {
		return 0, err
	}
	return len(plans), nil
}
