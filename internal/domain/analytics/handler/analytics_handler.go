package handler

import (
	"errors"
	"net/http"
	"time"

	"course_commerce/internal/domain/analytics/model"
	"course_commerce/internal/domain/analytics/service"
	"course_commerce/internal/pkg/middleware"
	"course_commerce/pkg/response"
	"course_commerce/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
}

func NewAnalyticsHandler(s service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: s}
}

type SubmitResultInput struct {
	CourseID    *string   `json:"courseId"`
	WPM         float64   `json:"wpm" binding:"required,gte=0"`
	Accuracy    float64   `json:"accuracy" binding:"gte=0,lte=100"`
	Keystrokes  int       `json:"keystrokes" binding:"required,gte=0"`
	ErrorCount  int       `json:"errorCount" binding:"gte=0"`
	DurationSec int       `json:"durationSec" binding:"required,gt=0"`
	TakenAt     time.Time `json:"takenAt"`
}

// Submit 上报一次打字测试成绩
// @Summary 上报打字成绩
// @Tags Analytics
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body SubmitResultInput true "Typing Result"
// @Success 200 {object} response.Response
// @Router /analytics/results [post]
func (h *AnalyticsHandler) Submit(c *gin.Context) {
	var input SubmitResultInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result := &model.TypingResult{
		UserID:      middleware.GetUserID(c),
		CourseID:    input.CourseID,
		WPM:         input.WPM,
		Accuracy:    input.Accuracy,
		Keystrokes:  input.Keystrokes,
		ErrorCount:  input.ErrorCount,
		DurationSec: input.DurationSec,
		TakenAt:     input.TakenAt,
	}

	if err := h.service.Ingest(c.Request.Context(), result); err != nil {
		if errors.Is(err, service.ErrInvalidResult) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, nil)
}

// List 当前用户历史成绩
// @Summary 历史成绩列表
// @Tags Analytics
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /analytics/results [get]
func (h *AnalyticsHandler) List(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	_, limit := p.GetPageOffset()

	results, total, err := h.service.GetResults(c.Request.Context(), middleware.GetUserID(c), p.Page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: results, Total: total, Page: p.Page, Limit: limit})
}

// Stats 当前用户成绩聚合
// @Summary 成绩统计
// @Tags Analytics
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /analytics/stats [get]
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, stats)
}
