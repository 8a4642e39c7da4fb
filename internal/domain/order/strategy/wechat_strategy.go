package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"course_commerce/internal/pkg/config"

	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/core/downloader"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/native"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

type WechatStrategy struct {
	client  *core.Client
	config  config.WechatPayConfig
	handler *notify.Handler
}

func NewWechatStrategy() (*WechatStrategy, error) {
	cfg := config.GlobalConfig.Wechat
	if cfg.MchID == "" {
		return nil, errors.New("wechat pay config missing")
	}

	// 加载商户私钥
	mchPrivateKey, err := utils.LoadPrivateKey(cfg.MchPrivateKey)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	opts := []core.ClientOption{
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.MchCertificateSerial, mchPrivateKey, cfg.APIv3Key),
	}

	client, err := core.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// 证书管理器 (用于验签) + Notify Handler
	certVisitor := downloader.MgrInstance().GetCertificateVisitor(cfg.MchID)
	handler := notify.NewNotifyHandler(cfg.APIv3Key, verifiers.NewSHA256WithRSAVerifier(certVisitor))

	return &WechatStrategy{
		client:  client,
		config:  cfg,
		handler: handler,
	}, nil
}

// Pay 发起 Native 支付，返回二维码链接
func (s *WechatStrategy) Pay(orderNumber string, amount float64, subject string) (string, error) {
	// 转换为分
	amountFen := int64(amount * 100)

	req := native.PrepayRequest{
		Appid:       core.String(s.config.AppID),
		Mchid:       core.String(s.config.MchID),
		Description: core.String(subject),
		OutTradeNo:  core.String(orderNumber),
		NotifyUrl:   core.String(s.config.NotifyURL),
		Amount: &native.Amount{
			Total: core.Int64(amountFen),
		},
	}

	svc := native.NativeApiService{Client: s.client}
	resp, _, err := svc.Prepay(context.Background(), req)
	if err != nil {
		return "", err
	}

	return *resp.CodeUrl, nil
}

func (s *WechatStrategy) Notify(params interface{}) (*NotifyResult, error) {
	req, ok := params.(*http.Request)
	if !ok {
		return nil, errors.New("invalid params type, expected *http.Request")
	}

	transaction := new(payments.Transaction)
	_, err := s.handler.ParseNotifyRequest(context.Background(), req, transaction)
	if err != nil {
		return nil, err
	}

	success := transaction.TradeState != nil && *transaction.TradeState == "SUCCESS"

	var amount float64
	if transaction.Amount != nil && transaction.Amount.Total != nil {
		amount = float64(*transaction.Amount.Total) / 100.0
	}

	var tradeNo string
	if transaction.TransactionId != nil {
		tradeNo = *transaction.TransactionId
	}

	raw, _ := json.Marshal(transaction)

	var orderNumber string
	if transaction.OutTradeNo != nil {
		orderNumber = *transaction.OutTradeNo
	}

	return &NotifyResult{
		OrderNumber: orderNumber,
		Amount:      amount,
		TradeNo:     tradeNo,
		Success:     success,
		Raw:         raw,
	}, nil
}

var _ PaymentStrategy = (*WechatStrategy)(nil)
