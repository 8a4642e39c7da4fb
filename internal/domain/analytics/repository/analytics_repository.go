package repository

import (
	"context"

	"course_commerce/internal/domain/analytics/model"

	"gorm.io/gorm"
)

// AnalyticsRepository 成绩仓储接口
type AnalyticsRepository interface {
	CreateBatch(ctx context.Context, results []model.TypingResult) error
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]model.TypingResult, int64, error)
	GetUserStats(ctx context.Context, userID string) (*model.UserStats, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CreateBatch(ctx context.Context, results []model.TypingResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(results, 100).Error
}

func (r *analyticsRepository) GetByUserID(ctx context.Context, userID string, offset, limit int) ([]model.TypingResult, int64, error) {
	var results []model.TypingResult
	var total int64

	q := r.db.WithContext(ctx).Model(&model.TypingResult{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("taken_at DESC").Offset(offset).Limit(limit).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *analyticsRepository) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.db.WithContext(ctx).Model(&model.TypingResult{}).
		Select("COUNT(*) AS total_tests, COALESCE(AVG(wpm), 0) AS avg_wpm, COALESCE(MAX(wpm), 0) AS best_wpm, COALESCE(AVG(accuracy), 0) AS avg_accuracy").
		Where("user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
