package handler

import (
	"errors"
	"net/http"

	couponService "course_commerce/internal/domain/coupon/service"
	"course_commerce/internal/domain/order/model"
	"course_commerce/internal/domain/order/service"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/pkg/response"
	"course_commerce/pkg/utils"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type CreateOrderInput struct {
	CourseID   string `json:"courseId" binding:"required,uuid"`
	CouponCode string `json:"couponCode"`
	Channel    string `json:"channel" binding:"required,oneof=alipay wechat"`
	Notes      string `json:"notes"`
}

// Create 创建订单并发起支付
// @Summary 创建订单
// @Tags Order
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body CreateOrderInput true "Order Info"
// @Success 200 {object} response.Response
// @Router /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, payParam, err := h.service.PlaceOrder(
		c.Request.Context(),
		middleware.GetUserID(c),
		input.CourseID, input.CouponCode, input.Channel, input.Notes,
	)
	if err != nil {
		response.Fail(c, orderErrorCode(err), err.Error())
		return
	}

	response.Success(c, gin.H{
		"order":    order,
		"payParam": payParam,
	})
}

// Get 订单详情，仅本人或管理员可见
// @Summary 订单详情
// @Tags Order
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, orderErrorCode(err), err.Error())
		return
	}

	if order.UserID != middleware.GetUserID(c) && !middleware.IsAdmin(c) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "no permission")
		return
	}

	response.Success(c, order)
}

// List 当前用户订单列表
// @Summary 订单列表
// @Tags Order
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	_, limit := p.GetPageOffset()

	orders, total, err := h.service.GetUserOrders(c.Request.Context(), middleware.GetUserID(c), p.Page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: orders, Total: total, Page: p.Page, Limit: limit})
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending processing completed failed refunded"`
}

// UpdateStatus 更新订单状态 (管理员)
// @Summary 更新订单状态
// @Tags Order
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Param input body UpdateStatusInput true "Status"
// @Success 200 {object} response.Response
// @Router /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		response.Fail(c, orderErrorCode(err), err.Error())
		return
	}

	response.Success(c, order)
}

type GenerateInvoiceInput struct {
	Number string `json:"number" binding:"required"`
	URL    string `json:"url"`
}

// GenerateInvoice 为已完成订单写入发票信息 (管理员)
// @Summary 生成发票
// @Tags Order
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Param input body GenerateInvoiceInput true "Invoice Info"
// @Success 200 {object} response.Response
// @Router /orders/{id}/invoice [post]
func (h *OrderHandler) GenerateInvoice(c *gin.Context) {
	var input GenerateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.GenerateInvoice(c.Request.Context(), c.Param("id"), service.InvoiceDetails{
		Number: input.Number,
		URL:    input.URL,
	})
	if err != nil {
		response.Fail(c, orderErrorCode(err), err.Error())
		return
	}

	response.Success(c, order)
}

// AlipayNotify 支付宝异步回调
// @Summary 支付宝回调
// @Tags Order
// @Router /orders/notify/alipay [post]
func (h *OrderHandler) AlipayNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "fail")
		return
	}

	if err := h.service.HandleNotify(model.ChannelAlipay, c.Request.Form); err != nil {
		c.String(http.StatusBadRequest, "fail")
		return
	}

	// 支付宝要求明文 success 确认
	c.String(http.StatusOK, "success")
}

// WechatNotify 微信支付异步回调
// @Summary 微信支付回调
// @Tags Order
// @Router /orders/notify/wechat [post]
func (h *OrderHandler) WechatNotify(c *gin.Context) {
	if err := h.service.HandleNotify(model.ChannelWechat, c.Request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "FAIL", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "成功"})
}

// orderErrorCode 把服务层错误映射为业务码
func orderErrorCode(err error) int {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return response.ErrOrderNotFound
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOrderNotCompleted):
		return response.ErrInvalidTransition
	case errors.Is(err, service.ErrInvoiceAlreadyIssued):
		return response.ErrInvoiceIssued
	case errors.Is(err, service.ErrOrderNumberExhausted):
		return response.ErrOrderNumberFailure
	case errors.Is(err, service.ErrUnsupportedChannel):
		return response.ErrPaymentChannel
	case errors.Is(err, couponService.ErrCouponNotFound):
		return response.ErrCouponNotFound
	case errors.Is(err, couponService.ErrCouponInactive):
		return response.ErrCouponInactive
	case errors.Is(err, couponService.ErrCouponExpired):
		return response.ErrCouponExpired
	case errors.Is(err, couponService.ErrCouponExhausted):
		return response.ErrCouponExhausted
	case errors.Is(err, couponService.ErrMinPurchaseNotMet):
		return response.ErrMinPurchaseNotMet
	case errors.Is(err, couponService.ErrUserLimitReached):
		return response.ErrUserLimitReached
	case errors.Is(err, couponService.ErrLockTimeout):
		return response.ErrCouponContention
	default:
		return response.ErrServerInternal
	}
}
