package service

import (
	"errors"

	"course_commerce/internal/domain/course/model"
	"course_commerce/internal/domain/course/repository"

	"gorm.io/gorm"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseService interface {
	Create(title, slug, description string, price float64, coverURL string) (*model.Course, error)
	Get(id string) (*model.Course, error)
	GetBySlug(slug string) (*model.Course, error)
	ListPublished(page, limit int) ([]model.Course, int64, error)
	SetPublished(id string, published bool) (*model.Course, error)
}

type courseService struct {
	repo repository.CourseRepository
}

func NewCourseService(repo repository.CourseRepository) CourseService {
	return &courseService{repo: repo}
}

func (s *courseService) Create(title, slug, description string, price float64, coverURL string) (*model.Course, error) {
	course := &model.Course{
		Title:       title,
		Slug:        slug,
		Description: description,
		Price:       price,
		CoverURL:    coverURL,
	}
	if err := s.repo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) Get(id string) (*model.Course, error) {
	course, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *courseService) GetBySlug(slug string) (*model.Course, error) {
	course, err := s.repo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *courseService) ListPublished(page, limit int) ([]model.Course, int64, error) {
	offset := (page - 1) * limit
	return s.repo.GetPublished(offset, limit)
}

// SetPublished 上架/下架课程
func (s *courseService) SetPublished(id string, published bool) (*model.Course, error) {
	course, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	course.IsPublished = published
	if err := s.repo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}
