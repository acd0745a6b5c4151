package queue

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"cookclip/internal/core/ai/provider"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/infrastructure/monitoring"
	"cookclip/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 佇列已滿，請求不會送出
	ErrQueueFull = common.NewError(common.ErrCodeTooManyRequests, "reasoning queue is full", http.StatusTooManyRequests, nil)
	// ErrClosed 佇列已關閉
	ErrClosed = common.NewError(common.ErrCodeInternalError, "reasoning queue is closed", http.StatusServiceUnavailable, nil)
)

// job 佇列中的一次推理呼叫
type job struct {
	ctx    context.Context
	req    *provider.Request
	result chan result
}

type result struct {
	resp *provider.Response
	err  error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 以固定數量的 worker 執行推理呼叫，本身也實作 provider.Provider
type Manager struct {
	next      provider.Provider
	config    config.QueueConfig
	queue     chan *job
	done      chan struct{}
	wg        sync.WaitGroup
	processed int64
	closeOnce sync.Once
}

var _ provider.Provider = (*Manager)(nil)

// NewManager 創建隊列並啟動 worker
func NewManager(next provider.Provider, cfg config.QueueConfig) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = cfg.Workers
	}

	m := &Manager{
		next:   next,
		config: cfg,
		queue:  make(chan *job, cfg.MaxSize),
		done:   make(chan struct{}),
	}

	m.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go m.worker()
	}

	common.LogInfo("推理佇列已啟動",
		zap.Int("workers", cfg.Workers),
		zap.Int("max_queue_size", cfg.MaxSize),
	)
	return m
}

// Generate 將請求排入佇列並等待結果；佇列已滿時立即返回 ErrQueueFull
func (m *Manager) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	j := &job{ctx: ctx, req: req, result: make(chan result, 1)}

	monitoring.ReasoningQueueDepth.Inc()
	select {
	case m.queue <- j:
	default:
		monitoring.ReasoningQueueDepth.Dec()
		common.LogWarn("推理佇列已滿", zap.Int("max_queue_size", m.config.MaxSize))
		return nil, ErrQueueFull
	}

	select {
	case r := <-j.result:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case j := <-m.queue:
			monitoring.ReasoningQueueDepth.Dec()
			// 呼叫端已放棄就不再送出
			if err := j.ctx.Err(); err != nil {
				j.result <- result{err: err}
				continue
			}
			resp, err := m.next.Generate(j.ctx, j.req)
			atomic.AddInt64(&m.processed, 1)
			j.result <- result{resp: resp, err: err}
		}
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// GetModel 返回底層模型名稱
func (m *Manager) GetModel() string {
	return m.next.GetModel()
}

// GetTimeout 返回底層逾時設定
func (m *Manager) GetTimeout() time.Duration {
	return m.next.GetTimeout()
}

// Close 停止 worker，仍在排隊的請求收到 ErrClosed
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()

		for {
			select {
			case j := <-m.queue:
				monitoring.ReasoningQueueDepth.Dec()
				j.result <- result{err: ErrClosed}
			default:
				common.LogInfo("推理佇列已關閉", zap.Int64("processed", atomic.LoadInt64(&m.processed)))
				return
			}
		}
	})
	return m.next.Close()
}
