package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"course_commerce/internal/domain/analytics/model"
	"course_commerce/internal/domain/analytics/repository"
)

// ResultBatch 待落库的一批打字成绩
type ResultBatch struct {
	Results []model.TypingResult
	Retry   int // 重试次数
}

// WorkerPool 成绩落库工作池，失败批次进入重试队列延迟重投
// 两个队列从不关闭，停机通过 done 信号广播，协程退出前排空各自的队列
type WorkerPool struct {
	TaskQueue  chan ResultBatch
	RetryQueue chan ResultBatch
	Repo       repository.AnalyticsRepository
	WorkerNum  int
	MaxRetry   int

	done     chan struct{}
	stopOnce sync.Once
	workerWg sync.WaitGroup
	retryWg  sync.WaitGroup
}

func NewWorkerPool(repo repository.AnalyticsRepository, workerNum int, bufferSize int) *WorkerPool {
	return &WorkerPool{
		TaskQueue:  make(chan ResultBatch, bufferSize),
		RetryQueue: make(chan ResultBatch, bufferSize/2),
		Repo:       repo,
		WorkerNum:  workerNum,
		MaxRetry:   3,
		done:       make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.workerWg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.retryWg.Add(1)
	go p.retryWorker()
	log.Printf("Analytics worker pool started with %d workers", p.WorkerNum)
}

// Stop 停止接收新批次，等所有协程把在途批次处理完后返回
// 等待结束后再兜底排空一次，接住停机窗口内的零星投递
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
	p.workerWg.Wait()
	p.retryWg.Wait()
	p.drainTasks(-1)
	p.drainRetries()
	log.Printf("Analytics worker pool stopped")
}

func (p *WorkerPool) worker(id int) {
	defer p.workerWg.Done()
	for {
		select {
		case <-p.done:
			p.drainTasks(id)
			return
		case batch := <-p.TaskQueue:
			p.handle(id, batch)
		}
	}
}

// drainTasks 把主队列里已积压的批次处理完
func (p *WorkerPool) drainTasks(id int) {
	for {
		select {
		case batch := <-p.TaskQueue:
			p.handle(id, batch)
		default:
			return
		}
	}
}

func (p *WorkerPool) handle(id int, batch ResultBatch) {
	err := p.processBatch(batch)
	if err == nil {
		return
	}
	log.Printf("[Worker %d] Failed to persist batch of %d results: %v",
		id, len(batch.Results), err)

	if batch.Retry >= p.MaxRetry {
		log.Printf("[Worker %d] Batch exceeded max retries, dropped", id)
		p.logFailedBatch(batch, err)
		return
	}
	batch.Retry++

	// 停机中不再走延迟重试，就地重试一次后进死信
	select {
	case <-p.done:
		p.retryNow(batch)
		return
	default:
	}

	select {
	case p.RetryQueue <- batch:
		log.Printf("[Worker %d] Batch added to retry queue (attempt %d/%d)",
			id, batch.Retry, p.MaxRetry)
	default:
		log.Printf("[Worker %d] Retry queue full, batch dropped", id)
		p.logFailedBatch(batch, err)
	}
}

func (p *WorkerPool) retryWorker() {
	defer p.retryWg.Done()
	for {
		select {
		case <-p.done:
			p.drainRetries()
			return
		case batch := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-time.After(time.Duration(batch.Retry) * time.Second):
			case <-p.done:
				p.retryNow(batch)
				continue
			}

			select {
			case p.TaskQueue <- batch:
				log.Printf("[RetryWorker] Batch re-queued (attempt %d/%d)", batch.Retry, p.MaxRetry)
			case <-p.done:
				p.retryNow(batch)
			default:
				log.Printf("[RetryWorker] Main queue full, batch dropped")
				p.logFailedBatch(batch, nil)
			}
		}
	}
}

// drainRetries 把重试队列里积压的批次就地处理完
func (p *WorkerPool) drainRetries() {
	for {
		select {
		case batch := <-p.RetryQueue:
			p.retryNow(batch)
		default:
			return
		}
	}
}

// retryNow 同步重试一次，仍失败就进死信
func (p *WorkerPool) retryNow(batch ResultBatch) {
	if err := p.processBatch(batch); err != nil {
		p.logFailedBatch(batch, err)
	}
}

func (p *WorkerPool) processBatch(batch ResultBatch) error {
	return p.Repo.CreateBatch(context.Background(), batch.Results)
}

func (p *WorkerPool) logFailedBatch(batch ResultBatch, err error) {
	// TODO: 写入死信存储，人工补录
	log.Printf("[DeadLetter] Batch failed permanently: size=%d, error=%v", len(batch.Results), err)
}

// AddBatch 批次入队，停机后或队列满时丢弃并记录
func (p *WorkerPool) AddBatch(batch ResultBatch) {
	select {
	case <-p.done:
		log.Printf("Worker pool stopped, dropping batch of %d results", len(batch.Results))
		p.logFailedBatch(batch, nil)
		return
	default:
	}

	select {
	case p.TaskQueue <- batch:
	default:
		log.Printf("Worker pool queue full, dropping batch of %d results", len(batch.Results))
		p.logFailedBatch(batch, nil)
	}
}
