package coupon

import (
	"course_commerce/internal/domain/coupon/handler"
	"course_commerce/internal/domain/coupon/repository"
	"course_commerce/internal/domain/coupon/service"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CouponModule 优惠券模块
type CouponModule struct{}

func init() {
	registry.Register(&CouponModule{})
}

func (m *CouponModule) Name() string {
	return "coupon"
}

func (m *CouponModule) Priority() int {
	return 10
}

func (m *CouponModule) Init(ctx *registry.ModuleContext) error {
	cRepo := repository.NewCouponRepository(ctx.DB)
	cService := service.NewCouponService(ctx.DB, cRepo, ctx.Redis)
	cHandler := handler.NewCouponHandler(cService)

	setupRoutes(ctx.Router, cHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CouponHandler) {
	g := r.Group("/coupons")

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		// 下单前试算折扣
		auth.POST("/preview", h.Preview)

		admin := auth.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("", h.Create)
			admin.GET("", h.List)
			admin.PUT("/:id/deactivate", h.Deactivate)
		}
	}
}
