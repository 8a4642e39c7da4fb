package common

import (
	commonHandler "course_commerce/internal/pkg/common"
	"course_commerce/internal/pkg/config"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/internal/pkg/registry"
	"course_commerce/internal/pkg/uploader"
	"course_commerce/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	// OSS 未配置时上传接口返回 500，不影响其他模块启动
	if config.GlobalConfig.OSS.Endpoint != "" {
		if err := uploader.InitUploader(); err != nil {
			return err
		}
	} else if logger.Log != nil {
		logger.Log.Warn("oss not configured, file upload disabled")
	}

	setupRoutes(ctx.Router)
	return nil
}

func setupRoutes(r *gin.Engine) {
	// 文件上传接口（发票、课程封面等）
	r.POST("/upload", middleware.AuthMiddleware(), middleware.AdminMiddleware(), commonHandler.UploadFile)
}
