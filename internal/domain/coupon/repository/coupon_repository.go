package repository

import (
	"context"
	"time"

	"course_commerce/internal/domain/coupon/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponRepository 优惠券仓库
// 核销相关的方法必须通过 WithTx 在同一事务内调用
type CouponRepository interface {
	WithTx(tx *gorm.DB) CouponRepository

	Create(coupon *model.Coupon) error
	GetByID(ctx context.Context, id string) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	// GetByCodeForUpdate 按优惠码加排它行锁读取（SELECT ... FOR UPDATE）
	GetByCodeForUpdate(ctx context.Context, code string) (*model.Coupon, error)
	CountUsages(ctx context.Context, couponID, userID string) (int64, error)
	IncrementUses(ctx context.Context, couponID string) error
	CreateUsage(ctx context.Context, usage *model.CouponUsage) error
	SetActive(id string, active bool) error
	GetList(offset, limit int) ([]model.Coupon, int64, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库实例
func (r *couponRepository) WithTx(tx *gorm.DB) CouponRepository {
	return &couponRepository{db: tx}
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	return r.db.Create(coupon).Error
}

func (r *couponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", model.NormalizeCode(code)).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) GetByCodeForUpdate(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", model.NormalizeCode(code)).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CountUsages 统计 (coupon, user) 的已核销次数
func (r *couponRepository) CountUsages(ctx context.Context, couponID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	return count, err
}

func (r *couponRepository) IncrementUses(ctx context.Context, couponID string) error {
	return r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ?", couponID).
		UpdateColumn("uses_count", gorm.Expr("uses_count + 1")).Error
}

func (r *couponRepository) CreateUsage(ctx context.Context, usage *model.CouponUsage) error {
	if usage.UsedAt.IsZero() {
		usage.UsedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *couponRepository) SetActive(id string, active bool) error {
	return r.db.Model(&model.Coupon{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *couponRepository) GetList(offset, limit int) ([]model.Coupon, int64, error) {
	var coupons []model.Coupon
	var total int64

	if err := r.db.Model(&model.Coupon{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.Offset(offset).Limit(limit).Order("created_at desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}
