package user

import (
	"course_commerce/internal/domain/user/handler"
	"course_commerce/internal/domain/user/repository"
	"course_commerce/internal/domain/user/service"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	return 1 // 其他模块依赖用户身份，最先初始化
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	uRepo := repository.NewUserRepository(ctx.DB)
	uService := service.NewUserService(uRepo)
	uHandler := handler.NewUserHandler(uService)

	setupRoutes(ctx.Router, uHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	g := r.Group("/users")

	g.POST("/register", h.Register)
	g.POST("/login", h.Login)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/me", h.Profile)

		admin := auth.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("", h.List)
		}
	}
}
