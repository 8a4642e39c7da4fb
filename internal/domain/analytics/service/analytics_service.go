package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"course_commerce/internal/domain/analytics/model"
	"course_commerce/internal/domain/analytics/repository"
	"course_commerce/internal/pkg/worker"
	"course_commerce/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	resultBufferKey = "analytics:results:buffer"

	drainInterval  = 2 * time.Second
	drainBatchSize = 200

	statsCacheTTL = 60 * time.Second
)

var ErrInvalidResult = errors.New("invalid typing result")

// AnalyticsService 打字成绩服务接口
// 成绩先进 Redis 缓冲，由后台协程批量搬运到数据库，写路径不阻塞请求
type AnalyticsService interface {
	Ingest(ctx context.Context, result *model.TypingResult) error
	GetResults(ctx context.Context, userID string, page, limit int) ([]model.TypingResult, int64, error)
	GetStats(ctx context.Context, userID string) (*model.UserStats, error)
	StartDrain(ctx context.Context)
	// StopDrain 取消排空协程并等它完成最后一轮排空
	StopDrain()
}

type analyticsService struct {
	repo repository.AnalyticsRepository
	rdb  *redis.Client
	pool *worker.WorkerPool

	cancelDrain context.CancelFunc
	drainDone   chan struct{}
}

func NewAnalyticsService(repo repository.AnalyticsRepository, rdb *redis.Client, pool *worker.WorkerPool) AnalyticsService {
	return &analyticsService{repo: repo, rdb: rdb, pool: pool}
}

// Ingest 校验后把成绩推入 Redis 列表缓冲
// Redis 不可用时降级为直接入队落库
func (s *analyticsService) Ingest(ctx context.Context, result *model.TypingResult) error {
	if err := result.Validate(); err != nil {
		return errors.Join(ErrInvalidResult, err)
	}
	if result.TakenAt.IsZero() {
		result.TakenAt = time.Now()
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	if s.rdb != nil {
		if err := s.rdb.RPush(ctx, resultBufferKey, data).Err(); err == nil {
			return nil
		} else if logger.Log != nil {
			logger.Log.Warn("redis buffer unavailable, falling back to direct enqueue", zap.Error(err))
		}
	}

	s.pool.AddBatch(worker.ResultBatch{Results: []model.TypingResult{*result}})
	return nil
}

// StartDrain 周期性批量弹出缓冲内容，交给工作池落库
// ctx 取消时对缓冲做最后一次排空后退出
func (s *analyticsService) StartDrain(ctx context.Context) {
	if s.rdb == nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancelDrain = cancel
	s.drainDone = make(chan struct{})

	go func() {
		defer close(s.drainDone)

		ticker := time.NewTicker(drainInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// 退出前把缓冲里剩余的成绩全部搬走
				s.drainOnce(context.Background())
				return
			case <-ticker.C:
				s.drainOnce(ctx)
			}
		}
	}()
}

func (s *analyticsService) StopDrain() {
	if s.cancelDrain == nil {
		return
	}
	s.cancelDrain()
	<-s.drainDone
}

func (s *analyticsService) drainOnce(ctx context.Context) {
	for {
		raw, err := s.rdb.LPopCount(ctx, resultBufferKey, drainBatchSize).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && logger.Log != nil {
				logger.Log.Warn("failed to drain analytics buffer", zap.Error(err))
			}
			return
		}
		if len(raw) == 0 {
			return
		}

		results := make([]model.TypingResult, 0, len(raw))
		for _, item := range raw {
			var r model.TypingResult
			if err := json.Unmarshal([]byte(item), &r); err != nil {
				// 坏数据只记日志，不阻塞整批
				if logger.Log != nil {
					logger.Log.Warn("dropping malformed buffered result", zap.Error(err))
				}
				continue
			}
			results = append(results, r)
		}

		if len(results) > 0 {
			s.pool.AddBatch(worker.ResultBatch{Results: results})
		}

		if len(raw) < drainBatchSize {
			return
		}
	}
}

func (s *analyticsService) GetResults(ctx context.Context, userID string, page, limit int) ([]model.TypingResult, int64, error) {
	offset := (page - 1) * limit
	return s.repo.GetByUserID(ctx, userID, offset, limit)
}

// GetStats 用户成绩聚合，带短 TTL 缓存
// 缓冲里尚未落库的成绩不计入，容忍分钟级延迟
func (s *analyticsService) GetStats(ctx context.Context, userID string) (*model.UserStats, error) {
	key := "analytics:stats:" + userID

	if s.rdb != nil {
		if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var stats model.UserStats
			if err := json.Unmarshal(data, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.repo.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.rdb.Set(ctx, key, data, statsCacheTTL)
		}
	}

	return stats, nil
}
