package model

import (
	baseModel "course_commerce/pkg/model"
)

// Course 课程模型
type Course struct {
	baseModel.BaseModel
	Title       string  `gorm:"type:varchar(200);not null" json:"title"`
	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null" json:"price"`
	CoverURL    string  `json:"coverUrl"`
	IsPublished bool    `gorm:"default:false;index" json:"isPublished"`
}
