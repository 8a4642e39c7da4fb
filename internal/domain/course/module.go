package course

import (
	"course_commerce/internal/domain/course/handler"
	"course_commerce/internal/domain/course/repository"
	"course_commerce/internal/domain/course/service"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CourseModule 课程模块
type CourseModule struct{}

func init() {
	registry.Register(&CourseModule{})
}

func (m *CourseModule) Name() string {
	return "course"
}

func (m *CourseModule) Priority() int {
	return 5
}

func (m *CourseModule) Init(ctx *registry.ModuleContext) error {
	cRepo := repository.NewCourseRepository(ctx.DB)
	cService := service.NewCourseService(cRepo)
	cHandler := handler.NewCourseHandler(cService)

	setupRoutes(ctx.Router, cHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CourseHandler) {
	g := r.Group("/courses")

	g.GET("", h.List)
	g.GET("/:id", h.Get)

	admin := g.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("", h.Create)
		admin.PUT("/:id/publish", h.Publish)
	}
}
