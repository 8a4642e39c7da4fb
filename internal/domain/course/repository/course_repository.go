package repository

import (
	"course_commerce/internal/domain/course/model"

	"gorm.io/gorm"
)

type CourseRepository interface {
	Create(course *model.Course) error
	GetByID(id string) (*model.Course, error)
	GetBySlug(slug string) (*model.Course, error)
	GetPublished(offset, limit int) ([]model.Course, int64, error)
	Update(course *model.Course) error
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(course *model.Course) error {
	return r.db.Create(course).Error
}

func (r *courseRepository) GetByID(id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) GetBySlug(slug string) (*model.Course, error) {
	var course model.Course
	if err := r.db.Where("slug = ?", slug).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// GetPublished 获取已上架课程（分页）
func (r *courseRepository) GetPublished(offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	q := r.db.Model(&model.Course{}).Where("is_published = ?", true)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Offset(offset).Limit(limit).Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepository) Update(course *model.Course) error {
	return r.db.Save(course).Error
}
