// Package pricing 计算套餐价格明细。纯函数，无 I/O，可在每次输入变化时调用做实时预览。
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/qs3c/hrsync_server/internal/model"
)

const (
	// CouponCode 目前唯一可用的优惠码，后续接入外部优惠券服务
	CouponCode = "HRSYNC"

	MinYears = 1
	MaxYears = 5
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
	couponRate    = decimal.RequireFromString("0.10")
)

// Breakdown 价格明细。中间值保留完整精度，只有 Payable 才四舍五入到 2 位
type Breakdown struct {
	BaseAmount            decimal.Decimal
	YearlyDiscountPercent decimal.Decimal
	YearlyDiscountAmount  decimal.Decimal
	CouponDiscountAmount  decimal.Decimal
	FinalAmount           decimal.Decimal
	CouponEligible        bool
	CouponApplied         bool
}

// NormalizeCoupon 去空白并转大写
func NormalizeCoupon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponEligible 优惠码是否可用，与是否已应用无关
func CouponEligible(code string) bool {
	return NormalizeCoupon(code) == CouponCode
}

// ValidYears 年限是否在下拉框范围内。Compute 本身不校验，由调用方负责
func ValidYears(years int) bool {
	return years >= MinYears && years <= MaxYears
}

// Compute 计算价格明细。
// 年付折扣基于原价，优惠码折扣基于扣除年付折扣后的金额，两者顺序叠加。
func Compute(plan model.Plan, years int, couponCode string, couponApplied bool) Breakdown {
	base := decimal.NewFromInt(plan.MonthlyPrice).Mul(monthsPerYear).Mul(decimal.NewFromInt(int64(years)))

	pct := decimal.NewFromFloat(plan.DiscountPercent(years))
	yearly := base.Mul(pct).Div(hundred)

	eligible := CouponEligible(couponCode)
	coupon := decimal.Zero
	if couponApplied && eligible {
		coupon = base.Sub(yearly).Mul(couponRate)
	}

	return Breakdown{
		BaseAmount:            base,
		YearlyDiscountPercent: pct,
		YearlyDiscountAmount:  yearly,
		CouponDiscountAmount:  coupon,
		FinalAmount:           base.Sub(yearly).Sub(coupon),
		CouponEligible:        eligible,
		CouponApplied:         couponApplied && eligible,
	}
}

// Payable 提交支付时使用的金额，四舍五入到 2 位小数
func (b Breakdown) Payable() decimal.Decimal {
	return b.FinalAmount.Round(2)
}

// MinorUnits 应付金额换算成最小货币单位（paise）
func (b Breakdown) MinorUnits() int64 {
	return b.Payable().Mul(hundred).IntPart()
}

// View 展示用的 2 位小数格式，不改变底层数值
type View struct {
	BaseAmount            string `json:"baseAmount"`
	YearlyDiscountPercent string `json:"yearlyDiscountPercent"`
	YearlyDiscountAmount  string `json:"yearlyDiscountAmount"`
	CouponDiscountAmount  string `json:"couponDiscountAmount"`
	FinalAmount           string `json:"finalAmount"`
	CouponEligible        bool   `json:"couponEligible"`
	CouponApplied         bool   `json:"couponApplied"`
}

func (b Breakdown) View() View {
	return View{
		BaseAmount:            b.BaseAmount.StringFixed(2),
		YearlyDiscountPercent: b.YearlyDiscountPercent.String(),
		YearlyDiscountAmount:  b.YearlyDiscountAmount.StringFixed(2),
		CouponDiscountAmount:  b.CouponDiscountAmount.StringFixed(2),
		FinalAmount:           b.FinalAmount.StringFixed(2),
		CouponEligible:        b.CouponEligible,
		CouponApplied:         b.CouponApplied,
	}
}
