package handler

import (
	"net/http"
	"time"

	"course_commerce/internal/domain/coupon/service"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/pkg/response"
	"course_commerce/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	service service.CouponService
}

func NewCouponHandler(s service.CouponService) *CouponHandler {
	return &CouponHandler{service: s}
}

type CreateCouponInput struct {
	Code           string    `json:"code" binding:"required"`
	Type           string    `json:"type" binding:"required,oneof=percentage fixed"`
	Value          float64   `json:"value" binding:"required,gte=0"`
	MaxDiscount    *float64  `json:"maxDiscount"`
	MinPurchase    *float64  `json:"minPurchase"`
	StartDate      time.Time `json:"startDate" binding:"required"`
	EndDate        time.Time `json:"endDate" binding:"required"`
	MaxUses        *int      `json:"maxUses"`
	MaxUsesPerUser int       `json:"maxUsesPerUser"`
}

// Create 创建优惠券 (管理员)
// @Summary 创建优惠券
// @Tags Coupon
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body CreateCouponInput true "Coupon Info"
// @Success 200 {object} response.Response
// @Router /coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	var input CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	coupon, err := h.service.CreateCoupon(
		input.Code, input.Type, input.Value, input.MaxDiscount, input.MinPurchase,
		input.StartDate, input.EndDate, input.MaxUses, input.MaxUsesPerUser,
		middleware.GetUserID(c),
	)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	response.Success(c, coupon)
}

type PreviewInput struct {
	Code   string  `json:"code" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gte=0"`
}

// Preview 试算优惠码折扣（不消耗额度）
// @Summary 试算优惠码折扣
// @Tags Coupon
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body PreviewInput true "Preview Info"
// @Success 200 {object} response.Response
// @Router /coupons/preview [post]
func (h *CouponHandler) Preview(c *gin.Context) {
	var input PreviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	discount, err := h.service.Preview(c.Request.Context(), input.Code, input.Amount)
	if err != nil {
		response.Fail(c, couponErrorCode(err), err.Error())
		return
	}

	response.Success(c, gin.H{
		"code":     input.Code,
		"amount":   input.Amount,
		"discount": discount,
	})
}

// Deactivate 停用优惠券，保留历史核销记录 (管理员)
// @Summary 停用优惠券
// @Tags Coupon
// @Produce json
// @Security Bearer
// @Param id path string true "Coupon ID"
// @Success 200 {object} response.Response
// @Router /coupons/{id}/deactivate [put]
func (h *CouponHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Param("id")); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, nil)
}

// List 优惠券列表 (管理员)
// @Summary 优惠券列表
// @Tags Coupon
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /coupons [get]
func (h *CouponHandler) List(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	_, limit := p.GetPageOffset()

	coupons, total, err := h.service.GetCoupons(p.Page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: coupons, Total: total, Page: p.Page, Limit: limit})
}

// couponErrorCode 把服务层错误映射为业务码
func couponErrorCode(err error) int {
	switch err {
	case service.ErrCouponNotFound:
		return response.ErrCouponNotFound
	case service.ErrCouponInactive:
		return response.ErrCouponInactive
	case service.ErrCouponExpired:
		return response.ErrCouponExpired
	case service.ErrCouponExhausted:
		return response.ErrCouponExhausted
	case service.ErrMinPurchaseNotMet:
		return response.ErrMinPurchaseNotMet
	case service.ErrUserLimitReached:
		return response.ErrUserLimitReached
	default:
		return response.ErrServerInternal
	}
}
