package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	courseRepo "course_commerce/internal/domain/course/repository"
	couponService "course_commerce/internal/domain/coupon/service"
	"course_commerce/internal/domain/order/model"
	"course_commerce/internal/domain/order/repository"
	"course_commerce/internal/domain/order/strategy"
	"course_commerce/internal/pkg/config"
	"course_commerce/pkg/database"
	"course_commerce/pkg/logger"
	"course_commerce/pkg/metrics"
	"course_commerce/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrOrderNotCompleted    = errors.New("order is not completed")
	ErrInvoiceAlreadyIssued = errors.New("invoice already issued for this order")
	ErrOrderNumberExhausted = errors.New("failed to generate unique order number")
	ErrUnsupportedChannel   = errors.New("unsupported payment channel")
	ErrInvalidAmount        = errors.New("invalid order amount")
)

// 订单号冲突重试上限
const orderNumberMaxAttempts = 3

// CreateOrderInput 创建订单入参
type CreateOrderInput struct {
	UserID         string
	CourseID       string
	OriginalAmount float64
	DiscountAmount float64
	CouponID       *string
	PaymentMethod  string
	Currency       string
	Notes          string
	Metadata       json.RawMessage
}

// PaymentDetails 网关回调带来的支付明细
type PaymentDetails struct {
	TransactionID    string
	GatewayOrderID   string
	GatewayPaymentID string
	Status           string
	Gateway          string
	GatewayResponse  json.RawMessage
	PaidAt           *time.Time
}

// InvoiceDetails 发票写入入参
type InvoiceDetails struct {
	Number      string
	URL         string
	GeneratedAt time.Time
}

// OrderService 订单服务接口
type OrderService interface {
	// PlaceOrder 下单编排：课程定价 -> 优惠券核销 -> 创建订单 -> 发起支付
	PlaceOrder(ctx context.Context, userID, courseID, couponCode, channel, notes string) (*model.Order, string, error)
	// CreateOrder 创建订单，订单号冲突时有界重试
	CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID, newStatus string) (*model.Order, error)
	UpdatePaymentDetails(ctx context.Context, orderID string, details PaymentDetails) (*model.Order, error)
	GenerateInvoice(ctx context.Context, orderID string, invoice InvoiceDetails) (*model.Order, error)
	HandleNotify(channel string, params interface{}) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetUserOrders(ctx context.Context, userID string, page, limit int) ([]model.Order, int64, error)
	RegisterStrategy(channel string, s strategy.PaymentStrategy)
}

type orderService struct {
	db         *gorm.DB
	repo       repository.OrderRepository
	coupons    couponService.CouponService
	courses    courseRepo.CourseRepository
	strategies map[string]strategy.PaymentStrategy
}

func NewOrderService(db *gorm.DB, repo repository.OrderRepository,
	coupons couponService.CouponService, courses courseRepo.CourseRepository) OrderService {
	return &orderService{
		db:         db,
		repo:       repo,
		coupons:    coupons,
		courses:    courses,
		strategies: make(map[string]strategy.PaymentStrategy),
	}
}

// RegisterStrategy 注册支付策略
func (s *orderService) RegisterStrategy(channel string, st strategy.PaymentStrategy) {
	s.strategies[channel] = st
}

// PlaceOrder 优惠券核销和订单创建是两个独立的原子单元：
// 券核销成功后订单创建失败时，已消耗的额度不回滚，只记日志
func (s *orderService) PlaceOrder(ctx context.Context, userID, courseID, couponCode, channel, notes string) (*model.Order, string, error) {
	st, ok := s.strategies[channel]
	if !ok {
		return nil, "", ErrUnsupportedChannel
	}

	course, err := s.courses.GetByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("course %s not found", courseID)
		}
		return nil, "", err
	}

	input := CreateOrderInput{
		UserID:         userID,
		CourseID:       courseID,
		OriginalAmount: course.Price,
		PaymentMethod:  channel,
		Currency:       config.GlobalConfig.Order.Currency,
		Notes:          notes,
	}

	if couponCode != "" {
		reservation, err := s.coupons.Reserve(ctx, couponCode, userID, course.Price)
		if err != nil {
			return nil, "", err
		}
		input.DiscountAmount = reservation.DiscountAmount
		input.CouponID = &reservation.Coupon.ID
	}

	order, err := s.CreateOrder(ctx, input)
	if err != nil {
		if input.CouponID != nil && logger.Log != nil {
			// 券额度已消耗但订单未落库，人工对账入口
			logger.Log.Error("order creation failed after coupon reservation",
				zap.String("couponId", *input.CouponID),
				zap.String("userId", userID),
				zap.Error(err),
			)
		}
		return nil, "", err
	}

	payParam, err := st.Pay(order.OrderNumber, order.Amount, course.Title)
	if err != nil {
		return nil, "", err
	}

	return order, payParam, nil
}

func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error) {
	// 三个金额入库前统一取整到分，保证 amount = original - discount 逐位成立
	original := utils.RoundMoney(input.OriginalAmount)
	discount := utils.RoundMoney(input.DiscountAmount)
	if original < 0 || discount < 0 || discount > original {
		return nil, ErrInvalidAmount
	}

	currency := input.Currency
	if currency == "" {
		currency = config.GlobalConfig.Order.Currency
	}

	now := time.Now()
	order := &model.Order{
		UserID:         input.UserID,
		CourseID:       input.CourseID,
		OriginalAmount: original,
		DiscountAmount: discount,
		Amount:         utils.RoundMoney(original - discount),
		CouponID:       input.CouponID,
		Currency:       currency,
		Status:         model.StatusPending,
		PaymentMethod:  input.PaymentMethod,
		Payment:        model.Payment{Status: model.PaymentInitiated},
		AccessExpiry:   now.AddDate(0, config.GlobalConfig.Order.AccessMonths, 0),
		Notes:          input.Notes,
		Metadata:       input.Metadata,
	}

	// 订单号由日期+小随机数构成，唯一性靠数据库唯一约束兜底，冲突重新生成
	var lastErr error
	for attempt := 1; attempt <= orderNumberMaxAttempts; attempt++ {
		order.OrderNumber = model.NewOrderNumber(now)

		err := s.repo.Create(ctx, order)
		if err == nil {
			return order, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}

		lastErr = err
		if logger.Log != nil {
			logger.Log.Warn("order number collision, regenerating",
				zap.String("orderNumber", order.OrderNumber),
				zap.Int("attempt", attempt),
			)
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrOrderNumberExhausted, lastErr)
}

// UpdateStatus 校验状态机后更新订单状态，非法流转拒绝
func (s *orderService) UpdateStatus(ctx context.Context, orderID, newStatus string) (*model.Order, error) {
	var updated *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !model.CanTransition(order.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
		}

		if err := repo.Updates(ctx, orderID, map[string]interface{}{"status": newStatus}); err != nil {
			return err
		}

		metrics.ObserveOrderTransition(order.Status, newStatus)
		order.Status = newStatus
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// UpdatePaymentDetails 更新支付子记录
// 支付成功时在同一条 UPDATE 里把订单推进到 completed，失败推进到 failed
func (s *orderService) UpdatePaymentDetails(ctx context.Context, orderID string, details PaymentDetails) (*model.Order, error) {
	var updated *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !model.CanPaymentTransition(order.Payment.Status, details.Status) {
			return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, order.Payment.Status, details.Status)
		}

		fields := map[string]interface{}{
			"payment_status": details.Status,
		}
		if details.TransactionID != "" {
			fields["payment_transaction_id"] = details.TransactionID
		}
		if details.GatewayOrderID != "" {
			fields["payment_gateway_order_id"] = details.GatewayOrderID
		}
		if details.GatewayPaymentID != "" {
			fields["payment_gateway_payment_id"] = details.GatewayPaymentID
		}
		if details.Gateway != "" {
			fields["payment_gateway"] = details.Gateway
		}
		if details.GatewayResponse != nil {
			fields["payment_gateway_response"] = details.GatewayResponse
		}

		newStatus := order.Status
		switch details.Status {
		case model.PaymentSuccess:
			paidAt := details.PaidAt
			if paidAt == nil {
				now := time.Now()
				paidAt = &now
			}
			fields["payment_paid_at"] = paidAt

			if !model.CanPaymentDrive(order.Status, model.StatusCompleted) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, model.StatusCompleted)
			}
			newStatus = model.StatusCompleted
			fields["status"] = newStatus

		case model.PaymentFailed:
			if !model.CanPaymentDrive(order.Status, model.StatusFailed) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, model.StatusFailed)
			}
			newStatus = model.StatusFailed
			fields["status"] = newStatus
		}

		if err := repo.Updates(ctx, orderID, fields); err != nil {
			return err
		}

		if newStatus != order.Status {
			metrics.ObserveOrderTransition(order.Status, newStatus)
		}

		order.Payment.Status = details.Status
		order.Status = newStatus
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// GenerateInvoice 发票信息只写一次
// 相同发票号重复调用是幂等 no-op，不同发票号报错
func (s *orderService) GenerateInvoice(ctx context.Context, orderID string, invoice InvoiceDetails) (*model.Order, error) {
	var updated *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.Status != model.StatusCompleted {
			return ErrOrderNotCompleted
		}

		if order.Invoice.Number != "" {
			if order.Invoice.Number == invoice.Number {
				updated = order
				return nil
			}
			return ErrInvoiceAlreadyIssued
		}

		generatedAt := invoice.GeneratedAt
		if generatedAt.IsZero() {
			generatedAt = time.Now()
		}

		if err := repo.Updates(ctx, orderID, map[string]interface{}{
			"invoice_number":       invoice.Number,
			"invoice_url":          invoice.URL,
			"invoice_generated_at": generatedAt,
		}); err != nil {
			return err
		}

		order.Invoice = model.Invoice{Number: invoice.Number, URL: invoice.URL, GeneratedAt: &generatedAt}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// HandleNotify 处理网关异步回调
// 网关会重复投递，已处于目标支付状态的订单直接确认
func (s *orderService) HandleNotify(channel string, params interface{}) error {
	st, ok := s.strategies[channel]
	if !ok {
		return ErrUnsupportedChannel
	}

	result, err := st.Notify(params)
	if err != nil {
		return err
	}

	ctx := context.Background()
	order, err := s.repo.GetByOrderNumber(ctx, result.OrderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	target := model.PaymentFailed
	if result.Success {
		target = model.PaymentSuccess
	}

	// 重复回调：支付状态已到位，直接确认
	if order.Payment.Status == target {
		return nil
	}

	_, err = s.UpdatePaymentDetails(ctx, order.ID, PaymentDetails{
		TransactionID:   result.TradeNo,
		Status:          target,
		Gateway:         channel,
		GatewayResponse: result.Raw,
	})
	return err
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetUserOrders(ctx context.Context, userID string, page, limit int) ([]model.Order, int64, error) {
	offset := (page - 1) * limit
	return s.repo.GetByUserID(ctx, userID, offset, limit)
}
