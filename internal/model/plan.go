package model

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/datatypes"
)

var (
	ErrPlanPrice     = errors.New("plan monthly price must be positive")
	ErrPlanBand      = errors.New("plan employee band is inverted")
	ErrPlanDiscount  = errors.New("plan discount out of range")
	ErrPlanNameEmpty = errors.New("plan name is empty")
)

// Plan 订阅套餐。JSON 字段与计费后端保持一致（camelCase）
type Plan struct {
	ID             int64                                  `gorm:"primaryKey" json:"id"`
	Name           string                                 `gorm:"size:50;not null" json:"name"`
	MonthlyPrice   int64                                  `gorm:"not null" json:"monthlyPrice"`
	MinEmployees   int                                    `json:"minEmployees"`
	MaxEmployees   int                                    `json:"maxEmployees"`
	Features       datatypes.JSONType[[]string]           `json:"features"`
	YearlyDiscount datatypes.JSONType[map[string]float64] `json:"yearlyDiscount"`
}

func (Plan) TableName() string {
	return "plans"
}

// NewPlan 构造套餐
func NewPlan(id int64, name string, monthlyPrice int64, minEmployees, maxEmployees int, features []string, yearlyDiscount map[string]float64) Plan {
	return Plan{
		ID:             id,
		Name:           name,
		MonthlyPrice:   monthlyPrice,
		MinEmployees:   minEmployees,
		MaxEmployees:   maxEmployees,
		Features:       datatypes.NewJSONType(features),
		YearlyDiscount: datatypes.NewJSONType(yearlyDiscount),
	}
}

// FeatureList 功能列表（仅展示用）
func (p Plan) FeatureList() []string {
	return p.Features.Data()
}

// DiscountPercent 按年限查折扣表，缺失视为 0
func (p Plan) DiscountPercent(years int) float64 {
	table := p.YearlyDiscount.Data()
	if table == nil {
		return 0
	}
	return table[strconv.Itoa(years)]
}

// EmployeeBand 形如 "20-50"
func (p Plan) EmployeeBand() string {
	return fmt.Sprintf("%d-%d", p.MinEmployees, p.MaxEmployees)
}

// Validate 校验套餐不变量
func (p Plan) Validate() error {
	if p.Name == "" {
		return ErrPlanNameEmpty
	}
	if p.MonthlyPrice <= 0 {
		return ErrPlanPrice
	}
	if p.MinEmployees > p.MaxEmployees {
		return ErrPlanBand
	}
	for key, pct := range p.YearlyDiscount.Data() {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: %s=%v", ErrPlanDiscount, key, pct)
		}
	}
	return nil
}

// DefaultPlans 远程目录不可用时的兜底套餐，每次返回新副本
func DefaultPlans() []Plan {
	return []Plan{
		NewPlan(1, "Starter", 499, 1, 10,
			[]string{"Attendance", "Leave Management", "Employee Records"},
			map[string]float64{"1": 5, "2": 8, "3": 10, "4": 12, "5": 15}),
		NewPlan(2, "Growth", 999, 20, 50,
			[]string{"Attendance", "Payroll", "Leave", "Reports"},
			map[string]float64{"1": 6, "2": 10, "3": 12, "4": 15, "5": 18}),
		NewPlan(3, "Pro", 1899, 50, 100,
			[]string{"Attendance", "Payroll", "Compliance", "Analytics", "API Access"},
			map[string]float64{"1": 8, "2": 12, "3": 15, "4": 18, "5": 20}),
	}
}
