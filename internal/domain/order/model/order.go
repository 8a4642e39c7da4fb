package model

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	baseModel "course_commerce/pkg/model"
)

// 订单状态
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRefunded   = "refunded"
)

// 支付子状态
const (
	PaymentInitiated  = "initiated"
	PaymentProcessing = "processing"
	PaymentSuccess    = "success"
	PaymentFailed     = "failed"
)

// 支付渠道
const (
	ChannelAlipay = "alipay"
	ChannelWechat = "wechat"
)

// statusTransitions 管理侧订单状态机，failed/refunded 为终态
// completed/failed 不能从 pending 直接跳入，由管理接口逐步推进
var statusTransitions = map[string][]string{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRefunded},
	StatusFailed:     {},
	StatusRefunded:   {},
}

// paymentDrivenTransitions 仅支付结果回调允许驱动的订单状态跳转
// 回调到达时订单可能还停在 pending，支付结果直接定终态
var paymentDrivenTransitions = map[string][]string{
	StatusPending:    {StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// paymentTransitions 支付子状态机，success/failed 为终态
var paymentTransitions = map[string][]string{
	PaymentInitiated:  {PaymentProcessing, PaymentSuccess, PaymentFailed},
	PaymentProcessing: {PaymentSuccess, PaymentFailed},
	PaymentSuccess:    {},
	PaymentFailed:     {},
}

// Payment 网关侧支付子记录，嵌入订单行
type Payment struct {
	TransactionID    string          `gorm:"column:payment_transaction_id;index" json:"transactionId"`
	GatewayOrderID   string          `gorm:"column:payment_gateway_order_id" json:"gatewayOrderId"`
	GatewayPaymentID string          `gorm:"column:payment_gateway_payment_id" json:"gatewayPaymentId"`
	Status           string          `gorm:"column:payment_status;default:'initiated'" json:"status"`
	Gateway          string          `gorm:"column:payment_gateway" json:"gateway"`
	GatewayResponse  json.RawMessage `gorm:"column:payment_gateway_response;type:jsonb" json:"gatewayResponse,omitempty"`
	PaidAt           *time.Time      `gorm:"column:payment_paid_at" json:"paidAt,omitempty"`
}

// Invoice 发票信息，支付成功后只写入一次
type Invoice struct {
	Number      string     `gorm:"column:invoice_number" json:"number,omitempty"`
	URL         string     `gorm:"column:invoice_url" json:"url,omitempty"`
	GeneratedAt *time.Time `gorm:"column:invoice_generated_at" json:"generatedAt,omitempty"`
}

// Order 订单模型
// Amount = OriginalAmount - DiscountAmount，AccessExpiry 创建时固定，之后不再重算
type Order struct {
	baseModel.BaseModel
	OrderNumber    string          `gorm:"uniqueIndex;not null" json:"orderNumber"`
	UserID         string          `gorm:"type:uuid;index;not null" json:"userId"`
	CourseID       string          `gorm:"type:uuid;index;not null" json:"courseId"`
	OriginalAmount float64         `gorm:"not null" json:"originalAmount"`
	DiscountAmount float64         `gorm:"not null;default:0" json:"discountAmount"`
	Amount         float64         `gorm:"not null" json:"amount"`
	CouponID       *string         `gorm:"type:uuid" json:"couponId,omitempty"`
	Currency       string          `gorm:"type:varchar(10);default:'INR'" json:"currency"`
	Status         string          `gorm:"default:'pending';index" json:"status"`
	PaymentMethod  string          `gorm:"not null" json:"paymentMethod"`
	Payment        Payment         `gorm:"embedded" json:"payment"`
	AccessExpiry   time.Time       `gorm:"not null" json:"accessExpiry"`
	Invoice        Invoice         `gorm:"embedded" json:"invoice"`
	Notes          string          `json:"notes,omitempty"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// CanTransition 订单状态流转是否合法
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanPaymentDrive 支付结果是否允许把订单从 from 推到 to
func CanPaymentDrive(from, to string) bool {
	for _, next := range paymentDrivenTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanPaymentTransition 支付子状态流转是否合法
func CanPaymentTransition(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 是否终态
func IsTerminal(status string) bool {
	return len(statusTransitions[status]) == 0
}

// NewOrderNumber 生成订单号: ORD + 年月日 + 4位随机数
// 随机空间很小，唯一性由数据库唯一约束兜底，冲突时调用方重新生成
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD%s%04d", now.Format("060102"), rand.Intn(10000))
}
