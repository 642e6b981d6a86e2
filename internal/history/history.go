package history

import (
	"context"
	"sync"
	"time"

	xerrors "Monad-Agent-Kit/internal/errors"
)

// Exchange 表示一轮完整的问答记录。
type Exchange struct {
	ID          string `json:"id"`
	ThreadID    string `json:"thread_id"`
	AssistantID string `json:"assistant_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	CreatedAt   int64  `json:"created_at"`
}

// Store 抽象问答记录的持久化接口。
type Store interface {
	Save(ctx context.Context, exchange Exchange) error
	ListLatest(ctx context.Context, limit int) ([]Exchange, error)
	Close() error
}

// memoryCap 限制内存存储保留的记录数量，防止长时间运行后无限增长。
const memoryCap = 512

// MemoryStore 以内存方式保存问答记录，主要用于测试与本地开发。
type MemoryStore struct {
	mu        sync.RWMutex
	exchanges []Exchange
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save 实现 Store 接口，最新记录排在最前。
func (m *MemoryStore) Save(_ context.Context, exchange Exchange) error {
	if exchange.Question == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "问答记录缺少问题内容")
	}
	if exchange.CreatedAt == 0 {
		exchange.CreatedAt = time.Now().Unix()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges = append([]Exchange{exchange}, m.exchanges...)
	if len(m.exchanges) > memoryCap {
		m.exchanges = m.exchanges[:memoryCap]
	}
	return nil
}

// ListLatest 返回最近的问答记录，按时间倒序排列。
func (m *MemoryStore) ListLatest(_ context.Context, limit int) ([]Exchange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.exchanges) {
		limit = len(m.exchanges)
	}
	results := make([]Exchange, limit)
	copy(results, m.exchanges[:limit])
	return results, nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
