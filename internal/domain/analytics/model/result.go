package model

import (
	"errors"
	"time"

	baseModel "course_commerce/pkg/model"
)

// TypingResult 一次打字测试的成绩记录
type TypingResult struct {
	baseModel.BaseModel
	UserID      string    `gorm:"type:uuid;index;not null" json:"userId"`
	CourseID    *string   `gorm:"type:uuid;index" json:"courseId,omitempty"`
	WPM         float64   `gorm:"not null" json:"wpm"`
	Accuracy    float64   `gorm:"not null" json:"accuracy"`
	Keystrokes  int       `gorm:"not null" json:"keystrokes"`
	ErrorCount  int       `gorm:"not null" json:"errorCount"`
	DurationSec int       `gorm:"not null" json:"durationSec"`
	TakenAt     time.Time `gorm:"index;not null" json:"takenAt"`
}

// UserStats 用户成绩聚合
type UserStats struct {
	TotalTests  int64   `json:"totalTests"`
	AvgWPM      float64 `json:"avgWpm"`
	BestWPM     float64 `json:"bestWpm"`
	AvgAccuracy float64 `json:"avgAccuracy"`
}

// Validate 成绩入库前校验
func (r *TypingResult) Validate() error {
	if r.WPM < 0 || r.Accuracy < 0 || r.Accuracy > 100 {
		return errors.New("invalid wpm or accuracy")
	}
	if r.Keystrokes < 0 || r.ErrorCount < 0 || r.ErrorCount > r.Keystrokes {
		return errors.New("invalid keystroke counts")
	}
	if r.DurationSec <= 0 {
		return errors.New("duration must be positive")
	}
	return nil
}
