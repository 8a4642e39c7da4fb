package model

import (
	"errors"
	"strings"
	"time"

	baseModel "course_commerce/pkg/model"
	"course_commerce/pkg/utils"
)

// 优惠券类型
const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// Coupon 优惠券定义
// UsesCount 只允许在核销事务内递增，其余路径只读
type Coupon struct {
	baseModel.BaseModel
	Code           string     `gorm:"uniqueIndex;not null" json:"code"`
	Type           string     `gorm:"type:varchar(20);not null" json:"type"` // percentage, fixed
	Value          float64    `gorm:"not null" json:"value"`
	MaxDiscount    *float64   `json:"maxDiscount,omitempty"` // 仅 percentage 类型有意义
	MinPurchase    *float64   `json:"minPurchase,omitempty"`
	Description    string     `json:"description"`
	StartDate      time.Time  `gorm:"not null;index" json:"startDate"`
	EndDate        time.Time  `gorm:"not null;index" json:"endDate"`
	IsActive       bool       `gorm:"default:true;index" json:"isActive"`
	MaxUses        *int       `json:"maxUses,omitempty"` // nil 表示不限制总次数
	UsesCount      int        `gorm:"not null;default:0" json:"usesCount"`
	MaxUsesPerUser int        `gorm:"not null;default:1" json:"maxUsesPerUser"`
	Campaign       string     `json:"campaign,omitempty"`
	CreatedBy      string     `gorm:"type:uuid" json:"createdBy"`
}

// CouponUsage 核销流水，(coupon, user) 每成功核销一次追加一行
type CouponUsage struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	CouponID string    `gorm:"type:uuid;index:idx_coupon_user;not null" json:"couponId"`
	UserID   string    `gorm:"type:uuid;index:idx_coupon_user;not null" json:"userId"`
	UsedAt   time.Time `gorm:"not null" json:"usedAt"`
}

// NewCoupon 构造并校验优惠券
func NewCoupon(code, couponType string, value float64, maxDiscount, minPurchase *float64,
	startDate, endDate time.Time, maxUses *int, maxUsesPerUser int, createdBy string) (*Coupon, error) {

	code = NormalizeCode(code)
	if code == "" {
		return nil, errors.New("coupon code is required")
	}
	if couponType != TypePercentage && couponType != TypeFixed {
		return nil, errors.New("coupon type must be percentage or fixed")
	}
	if value < 0 {
		return nil, errors.New("coupon value must be non-negative")
	}
	if couponType == TypePercentage && value > 100 {
		return nil, errors.New("percentage value cannot exceed 100")
	}
	if !endDate.After(startDate) {
		return nil, errors.New("endDate must be after startDate")
	}
	if maxUses != nil && *maxUses <= 0 {
		return nil, errors.New("maxUses must be positive when set")
	}
	if maxUsesPerUser <= 0 {
		maxUsesPerUser = 1
	}

	return &Coupon{
		Code:           code,
		Type:           couponType,
		Value:          value,
		MaxDiscount:    maxDiscount,
		MinPurchase:    minPurchase,
		StartDate:      startDate,
		EndDate:        endDate,
		IsActive:       true,
		MaxUses:        maxUses,
		MaxUsesPerUser: maxUsesPerUser,
		CreatedBy:      createdBy,
	}, nil
}

// NormalizeCode 优惠码统一大写、去空格
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// InWindow 是否在有效期内
func (c *Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Exhausted 总使用次数是否已耗尽
func (c *Coupon) Exhausted() bool {
	return c.MaxUses != nil && c.UsesCount >= *c.MaxUses
}

// ComputeDiscount 计算指定订单金额下的折扣额
// percentage: amount*value/100，再按 MaxDiscount 封顶
// fixed: value
// 最终折扣不超过订单金额，结果保留两位小数
func (c *Coupon) ComputeDiscount(amount float64) float64 {
	var discount float64
	if c.Type == TypePercentage {
		discount = amount * c.Value / 100
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
	} else {
		discount = c.Value
	}

	if discount > amount {
		discount = amount
	}
	return utils.RoundMoney(discount)
}
