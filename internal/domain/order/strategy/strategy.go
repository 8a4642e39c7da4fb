package strategy

// PaymentStrategy 支付渠道抽象
type PaymentStrategy interface {
	// Pay 发起支付，返回支付参数（如 URL、prepay id）
	Pay(orderNumber string, amount float64, subject string) (string, error)

	// Notify 处理回调通知，返回解析后的订单号、金额、网关交易号、支付是否成功
	Notify(params interface{}) (*NotifyResult, error)
}

// NotifyResult 网关回调解析结果
type NotifyResult struct {
	OrderNumber string
	Amount      float64
	TradeNo     string // 网关侧交易号
	Success     bool
	Raw         []byte // 原始回调内容，存档到订单 payment_gateway_response
}
