package model

import (
	baseModel "course_commerce/pkg/model"
)

// 用户角色
const (
	RoleUser  = 1
	RoleAdmin = 2
)

// User 用户模型
type User struct {
	baseModel.BaseModel
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"` // 密码不返回给前端
	Name     string `gorm:"type:varchar(100)" json:"name"`
	Role     int    `gorm:"default:1" json:"role"`
}
