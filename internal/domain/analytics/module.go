package analytics

import (
	"context"

	"course_commerce/internal/domain/analytics/handler"
	"course_commerce/internal/domain/analytics/repository"
	"course_commerce/internal/domain/analytics/service"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/internal/pkg/registry"
	"course_commerce/internal/pkg/worker"

	"github.com/gin-gonic/gin"
)

// AnalyticsModule 打字成绩模块
type AnalyticsModule struct {
	service service.AnalyticsService
	pool    *worker.WorkerPool
}

func init() {
	registry.Register(&AnalyticsModule{})
}

func (m *AnalyticsModule) Name() string {
	return "analytics"
}

func (m *AnalyticsModule) Priority() int {
	return 30
}

func (m *AnalyticsModule) Init(ctx *registry.ModuleContext) error {
	aRepo := repository.NewAnalyticsRepository(ctx.DB)

	pool := worker.NewWorkerPool(aRepo, 4, 1024)
	pool.Start()

	aService := service.NewAnalyticsService(aRepo, ctx.Redis, pool)
	aService.StartDrain(context.Background())

	m.service = aService
	m.pool = pool

	aHandler := handler.NewAnalyticsHandler(aService)
	setupRoutes(ctx.Router, aHandler)
	return nil
}

// Shutdown 先停排空协程把 Redis 缓冲刷进工作池，再停池等批次全部落库
func (m *AnalyticsModule) Shutdown() {
	if m.service != nil {
		m.service.StopDrain()
	}
	if m.pool != nil {
		m.pool.Stop()
	}
}

func setupRoutes(r *gin.Engine, h *handler.AnalyticsHandler) {
	g := r.Group("/analytics")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("/results", h.Submit)
		g.GET("/results", h.List)
		g.GET("/stats", h.Stats)
	}
}
