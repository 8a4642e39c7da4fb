package handler

import (
	"errors"
	"net/http"

	"course_commerce/internal/domain/course/service"
	"course_commerce/pkg/response"
	"course_commerce/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	service service.CourseService
}

func NewCourseHandler(s service.CourseService) *CourseHandler {
	return &CourseHandler{service: s}
}

type CreateCourseInput struct {
	Title       string  `json:"title" binding:"required"`
	Slug        string  `json:"slug" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gte=0"`
	CoverURL    string  `json:"coverUrl"`
}

// Create 创建课程 (管理员)
// @Summary 创建课程
// @Tags Course
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body CreateCourseInput true "Course Info"
// @Success 200 {object} response.Response
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var input CreateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	course, err := h.service.Create(input.Title, input.Slug, input.Description, input.Price, input.CoverURL)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, course)
}

// Get 课程详情
// @Summary 课程详情
// @Tags Course
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Response
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrCourseNotFound, "Course not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, course)
}

// List 已上架课程列表
// @Summary 课程列表
// @Tags Course
// @Produce json
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	_, limit := p.GetPageOffset()

	courses, total, err := h.service.ListPublished(p.Page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: courses, Total: total, Page: p.Page, Limit: limit})
}

type PublishInput struct {
	Published *bool `json:"published" binding:"required"`
}

// Publish 上架/下架课程 (管理员)
// @Summary 上架/下架课程
// @Tags Course
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Course ID"
// @Param input body PublishInput true "Publish flag"
// @Success 200 {object} response.Response
// @Router /courses/{id}/publish [put]
func (h *CourseHandler) Publish(c *gin.Context) {
	var input PublishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	course, err := h.service.SetPublished(c.Param("id"), *input.Published)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrCourseNotFound, "Course not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, course)
}
