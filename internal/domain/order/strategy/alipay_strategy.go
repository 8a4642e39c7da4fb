package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"course_commerce/internal/pkg/config"

	"github.com/smartwalle/alipay/v3"
)

type AlipayStrategy struct {
	client *alipay.Client
	config config.AlipayConfig
}

func NewAlipayStrategy() (*AlipayStrategy, error) {
	cfg := config.GlobalConfig.Alipay
	if cfg.AppID == "" {
		return nil, errors.New("alipay config missing")
	}

	client, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.IsProduction)
	if err != nil {
		return nil, err
	}

	// 加载支付宝公钥 (用于验证签名)
	if err = client.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
		return nil, err
	}

	return &AlipayStrategy{
		client: client,
		config: cfg,
	}, nil
}

// Pay 发起网页支付
func (s *AlipayStrategy) Pay(orderNumber string, amount float64, subject string) (string, error) {
	p := alipay.TradePagePay{}
	p.NotifyURL = s.config.NotifyURL
	p.ReturnURL = s.config.ReturnURL
	p.Subject = subject
	p.OutTradeNo = orderNumber
	p.TotalAmount = fmt.Sprintf("%.2f", amount)
	p.ProductCode = "FAST_INSTANT_TRADE_PAY"

	payURL, err := s.client.TradePagePay(p)
	if err != nil {
		return "", err
	}
	return payURL.String(), nil
}

// Notify 处理回调
func (s *AlipayStrategy) Notify(params interface{}) (*NotifyResult, error) {
	// params 预期是 url.Values (gin context.Request.Form)
	values, ok := params.(url.Values)
	if !ok {
		return nil, errors.New("invalid params type, expected url.Values")
	}

	// 验证签名
	noti, err := s.client.DecodeNotification(values)
	if err != nil {
		return nil, err
	}

	// TRADE_SUCCESS 或 TRADE_FINISHED 表示成功
	success := noti.TradeStatus == alipay.TradeStatusSuccess ||
		noti.TradeStatus == alipay.TradeStatusFinished

	amount, _ := strconv.ParseFloat(noti.TotalAmount, 64)
	raw, _ := json.Marshal(noti)

	return &NotifyResult{
		OrderNumber: noti.OutTradeNo,
		Amount:      amount,
		TradeNo:     noti.TradeNo,
		Success:     success,
		Raw:         raw,
	}, nil
}

// 确保实现了接口
var _ PaymentStrategy = (*AlipayStrategy)(nil)
