package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"course_commerce/internal/domain/coupon/model"
	"course_commerce/internal/domain/coupon/repository"
	"course_commerce/pkg/database"
	"course_commerce/pkg/logger"
	"course_commerce/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 核销失败原因，全部不可重试，直接返回给调用方
var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrMinPurchaseNotMet = errors.New("order amount below coupon minimum purchase")
	ErrUserLimitReached  = errors.New("coupon usage limit reached for this user")
)

// ErrLockTimeout 行锁竞争超过重试上限，调用方可重试
var ErrLockTimeout = errors.New("coupon row lock contention, retry later")

const (
	reserveMaxAttempts = 3
	reserveBackoffBase = 50 * time.Millisecond

	previewCacheTTL = 30 * time.Second
)

// Reservation 核销结果：优惠券快照 + 计算出的折扣额
type Reservation struct {
	Coupon         *model.Coupon
	DiscountAmount float64
}

// CouponService 优惠券服务接口
type CouponService interface {
	CreateCoupon(code, couponType string, value float64, maxDiscount, minPurchase *float64,
		startDate, endDate time.Time, maxUses *int, maxUsesPerUser int, createdBy string) (*model.Coupon, error)
	// Reserve 校验优惠码并原子地消耗一次使用额度
	Reserve(ctx context.Context, code, userID string, amount float64) (*Reservation, error)
	// Preview 只计算折扣，不消耗额度
	Preview(ctx context.Context, code string, amount float64) (float64, error)
	Deactivate(id string) error
	GetCoupons(page, limit int) ([]model.Coupon, int64, error)
}

type couponService struct {
	db   *gorm.DB
	repo repository.CouponRepository
	rdb  *redis.Client
}

func NewCouponService(db *gorm.DB, repo repository.CouponRepository, rdb *redis.Client) CouponService {
	return &couponService{db: db, repo: repo, rdb: rdb}
}

func (s *couponService) CreateCoupon(code, couponType string, value float64, maxDiscount, minPurchase *float64,
	startDate, endDate time.Time, maxUses *int, maxUsesPerUser int, createdBy string) (*model.Coupon, error) {

	coupon, err := model.NewCoupon(code, couponType, value, maxDiscount, minPurchase,
		startDate, endDate, maxUses, maxUsesPerUser, createdBy)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}

	// 新建券后清掉预览缓存，避免读到旧数据
	s.invalidatePreviewCache(context.Background(), coupon.Code)

	return coupon, nil
}

// Reserve 在单个数据库事务内完成：行锁读取 -> 规则校验 -> 折扣计算 -> 计数递增 + 流水写入
// 两个并发请求核销同一张券时在行锁上串行，后到者看到先到者已提交的计数
// 锁竞争类错误做有限次退避重试，校验类错误立即返回
func (s *couponService) Reserve(ctx context.Context, code, userID string, amount float64) (*Reservation, error) {
	var lastErr error

	for attempt := 1; attempt <= reserveMaxAttempts; attempt++ {
		reservation, err := s.reserveOnce(ctx, code, userID, amount)
		if err == nil {
			metrics.ObserveCouponReservation("reserved")
			return reservation, nil
		}

		if !database.IsLockContention(err) {
			if isValidationError(err) {
				metrics.ObserveCouponReservation("rejected")
			} else {
				metrics.ObserveCouponReservation("error")
			}
			return nil, err
		}

		lastErr = err
		if logger.Log != nil {
			logger.Log.Warn("coupon reservation lock contention",
				zap.String("code", code),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}

		// 退避等待，同时尊重调用方的 deadline
		select {
		case <-ctx.Done():
			metrics.ObserveCouponReservation("contention")
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-time.After(time.Duration(attempt) * reserveBackoffBase):
		}
	}

	metrics.ObserveCouponReservation("contention")
	return nil, fmt.Errorf("%w: %v", ErrLockTimeout, lastErr)
}

func (s *couponService) reserveOnce(ctx context.Context, code, userID string, amount float64) (*Reservation, error) {
	var result *Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 有界锁等待：拿不到行锁时报 55P03 而不是无限阻塞
		if err := tx.Exec("SET LOCAL lock_timeout = '3s'").Error; err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)

		coupon, err := repo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCouponNotFound
			}
			return err
		}

		now := time.Now()
		if !coupon.IsActive {
			return ErrCouponInactive
		}
		if !coupon.InWindow(now) {
			return ErrCouponExpired
		}
		if coupon.Exhausted() {
			return ErrCouponExhausted
		}
		if coupon.MinPurchase != nil && amount < *coupon.MinPurchase {
			return ErrMinPurchaseNotMet
		}

		used, err := repo.CountUsages(ctx, coupon.ID, userID)
		if err != nil {
			return err
		}
		if used >= int64(coupon.MaxUsesPerUser) {
			return ErrUserLimitReached
		}

		discount := coupon.ComputeDiscount(amount)

		if err := repo.IncrementUses(ctx, coupon.ID); err != nil {
			return err
		}
		if err := repo.CreateUsage(ctx, &model.CouponUsage{
			CouponID: coupon.ID,
			UserID:   userID,
			UsedAt:   now,
		}); err != nil {
			return err
		}

		coupon.UsesCount++
		result = &Reservation{Coupon: coupon, DiscountAmount: discount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Preview 不加锁、不扣额度地试算折扣，命中 Redis 缓存时不访问数据库
// 结果仅供展示，下单时以 Reserve 的计算为准
func (s *couponService) Preview(ctx context.Context, code string, amount float64) (float64, error) {
	coupon, err := s.getCouponCached(ctx, code)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	if !coupon.IsActive {
		return 0, ErrCouponInactive
	}
	if !coupon.InWindow(now) {
		return 0, ErrCouponExpired
	}
	if coupon.Exhausted() {
		return 0, ErrCouponExhausted
	}
	if coupon.MinPurchase != nil && amount < *coupon.MinPurchase {
		return 0, ErrMinPurchaseNotMet
	}

	return coupon.ComputeDiscount(amount), nil
}

func (s *couponService) getCouponCached(ctx context.Context, code string) (*model.Coupon, error) {
	key := previewCacheKey(code)

	if s.rdb != nil {
		if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var coupon model.Coupon
			if err := json.Unmarshal(data, &coupon); err == nil {
				return &coupon, nil
			}
		}
	}

	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(coupon); err == nil {
			s.rdb.Set(ctx, key, data, previewCacheTTL)
		}
	}

	return coupon, nil
}

// Deactivate 停用优惠券并同步清掉预览缓存，停用立即对 Preview 生效
func (s *couponService) Deactivate(id string) error {
	ctx := context.Background()

	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		return err
	}

	if err := s.repo.SetActive(id, false); err != nil {
		return err
	}

	s.invalidatePreviewCache(ctx, coupon.Code)
	return nil
}

func (s *couponService) GetCoupons(page, limit int) ([]model.Coupon, int64, error) {
	offset := (page - 1) * limit
	return s.repo.GetList(offset, limit)
}

func (s *couponService) invalidatePreviewCache(ctx context.Context, code string) {
	if s.rdb != nil {
		s.rdb.Del(ctx, previewCacheKey(code))
	}
}

func previewCacheKey(code string) string {
	return fmt.Sprintf("coupon:meta:%s", model.NormalizeCode(code))
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrCouponNotFound) ||
		errors.Is(err, ErrCouponInactive) ||
		errors.Is(err, ErrCouponExpired) ||
		errors.Is(err, ErrCouponExhausted) ||
		errors.Is(err, ErrMinPurchaseNotMet) ||
		errors.Is(err, ErrUserLimitReached)
}
