package order

import (
	couponRepo "course_commerce/internal/domain/coupon/repository"
	couponService "course_commerce/internal/domain/coupon/service"
	courseRepo "course_commerce/internal/domain/course/repository"
	"course_commerce/internal/domain/order/handler"
	"course_commerce/internal/domain/order/model"
	"course_commerce/internal/domain/order/repository"
	"course_commerce/internal/domain/order/service"
	"course_commerce/internal/domain/order/strategy"
	"course_commerce/internal/pkg/config"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/internal/pkg/registry"
	"course_commerce/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderModule 订单模块，依赖优惠券和课程模块的仓储
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	return 20
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	oRepo := repository.NewOrderRepository(ctx.DB)
	cpRepo := couponRepo.NewCouponRepository(ctx.DB)
	cpService := couponService.NewCouponService(ctx.DB, cpRepo, ctx.Redis)
	csRepo := courseRepo.NewCourseRepository(ctx.DB)

	oService := service.NewOrderService(ctx.DB, oRepo, cpService, csRepo)

	// 未配置的渠道不注册，下单时返回渠道不支持
	if config.GlobalConfig.Alipay.AppID != "" {
		st, err := strategy.NewAlipayStrategy()
		if err != nil {
			return err
		}
		oService.RegisterStrategy(model.ChannelAlipay, st)
	} else if logger.Log != nil {
		logger.Log.Warn("alipay not configured, channel disabled", zap.String("module", m.Name()))
	}

	if config.GlobalConfig.Wechat.MchID != "" {
		st, err := strategy.NewWechatStrategy()
		if err != nil {
			return err
		}
		oService.RegisterStrategy(model.ChannelWechat, st)
	} else if logger.Log != nil {
		logger.Log.Warn("wechat pay not configured, channel disabled", zap.String("module", m.Name()))
	}

	oHandler := handler.NewOrderHandler(oService)
	setupRoutes(ctx.Router, oHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	g := r.Group("/orders")

	// 网关回调不走认证
	g.POST("/notify/alipay", h.AlipayNotify)
	g.POST("/notify/wechat", h.WechatNotify)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("", h.Create)
		auth.GET("", h.List)
		auth.GET("/:id", h.Get)

		admin := auth.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.PUT("/:id/status", h.UpdateStatus)
			admin.POST("/:id/invoice", h.GenerateInvoice)
		}
	}
}
