package service

import (
	"context"
	"testing"
	"time"

	"course_commerce/internal/domain/coupon/model"
	"course_commerce/internal/domain/coupon/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockCouponRepository is a mock of CouponRepository
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) WithTx(tx *gorm.DB) repository.CouponRepository {
	return m
}

func (m *MockCouponRepository) Create(coupon *model.Coupon) error {
	args := m.Called(coupon)
	return args.Error(0)
}

func (m *MockCouponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) GetByCodeForUpdate(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) CountUsages(ctx context.Context, couponID, userID string) (int64, error) {
	args := m.Called(ctx, couponID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCouponRepository) IncrementUses(ctx context.Context, couponID string) error {
	args := m.Called(ctx, couponID)
	return args.Error(0)
}

func (m *MockCouponRepository) CreateUsage(ctx context.Context, usage *model.CouponUsage) error {
	args := m.Called(ctx, usage)
	return args.Error(0)
}

func (m *MockCouponRepository) SetActive(id string, active bool) error {
	args := m.Called(id, active)
	return args.Error(0)
}

func (m *MockCouponRepository) GetList(offset, limit int) ([]model.Coupon, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]model.Coupon), args.Get(1).(int64), args.Error(2)
}

// newTestDB 用 sqlmock 构造 gorm 连接，只承载事务边界和 SET LOCAL
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, smock, err := sqlmock.New()
	assert.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	assert.NoError(t, err)

	return db, smock
}

// expectReserveTx 一次核销事务的数据库期望：开启、设置锁超时、提交或回滚
func expectReserveTx(smock sqlmock.Sqlmock, commit bool) {
	smock.ExpectBegin()
	smock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	if commit {
		smock.ExpectCommit()
	} else {
		smock.ExpectRollback()
	}
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func welcomeCoupon() *model.Coupon {
	now := time.Now()
	c := &model.Coupon{
		Code:           "WELCOME10",
		Type:           model.TypePercentage,
		Value:          10,
		MaxDiscount:    f64(1000),
		MinPurchase:    f64(500),
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.Add(time.Hour),
		IsActive:       true,
		MaxUses:        intp(100),
		UsesCount:      0,
		MaxUsesPerUser: 1,
	}
	c.ID = "coupon-id-1"
	return c
}

func TestReserve(t *testing.T) {
	t.Run("Success computes discount and consumes one usage", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		coupon := welcomeCoupon()
		expectReserveTx(smock, true)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "WELCOME10").Return(coupon, nil).Once()
		mockRepo.On("CountUsages", mock.Anything, "coupon-id-1", "user-1").Return(int64(0), nil).Once()
		mockRepo.On("IncrementUses", mock.Anything, "coupon-id-1").Return(nil).Once()
		mockRepo.On("CreateUsage", mock.Anything, mock.AnythingOfType("*model.CouponUsage")).Return(nil).Once()

		res, err := svc.Reserve(context.Background(), "welcome10", "user-1", 2000)

		assert.NoError(t, err)
		assert.Equal(t, 200.0, res.DiscountAmount)
		assert.Equal(t, 1, res.Coupon.UsesCount)
		mockRepo.AssertExpectations(t)
		assert.NoError(t, smock.ExpectationsWereMet())
	})

	t.Run("Second reservation by same user hits per-user limit", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		expectReserveTx(smock, false)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "WELCOME10").Return(welcomeCoupon(), nil).Once()
		mockRepo.On("CountUsages", mock.Anything, "coupon-id-1", "user-1").Return(int64(1), nil).Once()

		_, err := svc.Reserve(context.Background(), "WELCOME10", "user-1", 2000)

		assert.ErrorIs(t, err, ErrUserLimitReached)
		mockRepo.AssertNotCalled(t, "IncrementUses", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "CreateUsage", mock.Anything, mock.Anything)
	})

	t.Run("Fixed discount clamped to order amount", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		now := time.Now()
		flat := &model.Coupon{
			Code:           "FLAT50",
			Type:           model.TypeFixed,
			Value:          50,
			StartDate:      now.Add(-time.Hour),
			EndDate:        now.Add(time.Hour),
			IsActive:       true,
			MaxUsesPerUser: 1,
		}
		flat.ID = "coupon-id-2"

		expectReserveTx(smock, true)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "FLAT50").Return(flat, nil).Once()
		mockRepo.On("CountUsages", mock.Anything, "coupon-id-2", "user-1").Return(int64(0), nil).Once()
		mockRepo.On("IncrementUses", mock.Anything, "coupon-id-2").Return(nil).Once()
		mockRepo.On("CreateUsage", mock.Anything, mock.AnythingOfType("*model.CouponUsage")).Return(nil).Once()

		res, err := svc.Reserve(context.Background(), "FLAT50", "user-1", 30)

		assert.NoError(t, err)
		assert.Equal(t, 30.0, res.DiscountAmount)
	})

	t.Run("Unknown code", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		expectReserveTx(smock, false)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "NOPE").Return(nil, gorm.ErrRecordNotFound).Once()

		_, err := svc.Reserve(context.Background(), "NOPE", "user-1", 100)
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})

	t.Run("Inactive coupon", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		coupon := welcomeCoupon()
		coupon.IsActive = false
		expectReserveTx(smock, false)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "WELCOME10").Return(coupon, nil).Once()

		_, err := svc.Reserve(context.Background(), "WELCOME10", "user-1", 2000)
		assert.ErrorIs(t, err, ErrCouponInactive)
	})

	t.Run("Outside validity window", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		coupon := welcomeCoupon()
		coupon.EndDate = time.Now().Add(-time.Minute)
		expectReserveTx(smock, false)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "WELCOME10").Return(coupon, nil).Once()

		_, err := svc.Reserve(context.Background(), "WELCOME10", "user-1", 2000)
		assert.ErrorIs(t, err, ErrCouponExpired)
	})

	t.Run("Global usage cap exhausted", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		coupon := welcomeCoupon()
		coupon.UsesCount = 100
		expectReserveTx(smock, false)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "WELCOME10").Return(coupon, nil).Once()

		_, err := svc.Reserve(context.Background(), "WELCOME10", "user-1", 2000)
		assert.ErrorIs(t, err, ErrCouponExhausted)
	})

	t.Run("Order amount below minimum purchase", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		expectReserveTx(smock, false)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "WELCOME10").Return(welcomeCoupon(), nil).Once()

		_, err := svc.Reserve(context.Background(), "WELCOME10", "user-1", 400)
		assert.ErrorIs(t, err, ErrMinPurchaseNotMet)
	})

	t.Run("Lock contention retried then surfaced as retryable", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		lockErr := &pgconn.PgError{Code: "55P03"}
		for i := 0; i < 3; i++ {
			expectReserveTx(smock, false)
		}
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "WELCOME10").Return(nil, lockErr).Times(3)

		_, err := svc.Reserve(context.Background(), "WELCOME10", "user-1", 2000)

		assert.ErrorIs(t, err, ErrLockTimeout)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Caller deadline aborts backoff", func(t *testing.T) {
		db, smock := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		expectReserveTx(smock, false)
		mockRepo.On("GetByCodeForUpdate", mock.Anything, "WELCOME10").
			Return(nil, &pgconn.PgError{Code: "55P03"}).Once()

		// deadline 在首次退避期间到期，早于 50ms 的退避定时器
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := svc.Reserve(ctx, "WELCOME10", "user-1", 2000)
		assert.ErrorIs(t, err, ErrLockTimeout)
	})
}

func TestPreview(t *testing.T) {
	t.Run("Computes discount without consuming usage", func(t *testing.T) {
		db, _ := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		mockRepo.On("GetByCode", mock.Anything, "WELCOME10").Return(welcomeCoupon(), nil).Once()

		discount, err := svc.Preview(context.Background(), "WELCOME10", 2000)

		assert.NoError(t, err)
		assert.Equal(t, 200.0, discount)
		mockRepo.AssertNotCalled(t, "IncrementUses", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "CreateUsage", mock.Anything, mock.Anything)
	})

	t.Run("Rejects below minimum purchase", func(t *testing.T) {
		db, _ := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		mockRepo.On("GetByCode", mock.Anything, "WELCOME10").Return(welcomeCoupon(), nil).Once()

		_, err := svc.Preview(context.Background(), "WELCOME10", 100)
		assert.ErrorIs(t, err, ErrMinPurchaseNotMet)
	})
}

func TestCreateCoupon(t *testing.T) {
	db, _ := newTestDB(t)
	mockRepo := new(MockCouponRepository)
	svc := NewCouponService(db, mockRepo, nil)

	t.Run("Persists a valid coupon", func(t *testing.T) {
		start := time.Now()
		mockRepo.On("Create", mock.AnythingOfType("*model.Coupon")).Return(nil).Once()

		coupon, err := svc.CreateCoupon("summer25", model.TypePercentage, 25, f64(500), nil,
			start, start.Add(30*24*time.Hour), intp(1000), 2, "admin-1")

		assert.NoError(t, err)
		assert.Equal(t, "SUMMER25", coupon.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Rejects invalid definition before touching the store", func(t *testing.T) {
		start := time.Now()
		_, err := svc.CreateCoupon("bad", "bogo", 25, nil, nil, start, start.Add(time.Hour), nil, 1, "admin-1")
		assert.Error(t, err)
		mockRepo.AssertNumberOfCalls(t, "Create", 1)
	})
}

func TestDeactivate(t *testing.T) {
	t.Run("Loads the coupon to clear its preview cache entry", func(t *testing.T) {
		db, _ := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		// 失效缓存按优惠码 key，停用前先把 id 换成码
		mockRepo.On("GetByID", mock.Anything, "coupon-id-1").Return(welcomeCoupon(), nil).Once()
		mockRepo.On("SetActive", "coupon-id-1", false).Return(nil).Once()

		assert.NoError(t, svc.Deactivate("coupon-id-1"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("Unknown coupon", func(t *testing.T) {
		db, _ := newTestDB(t)
		mockRepo := new(MockCouponRepository)
		svc := NewCouponService(db, mockRepo, nil)

		mockRepo.On("GetByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound).Once()

		err := svc.Deactivate("missing")
		assert.ErrorIs(t, err, ErrCouponNotFound)
		mockRepo.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything)
	})
}
