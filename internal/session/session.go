// Package session persists the remote resources bound to a conversation so
// a restart can resume the same assistant and thread instead of creating new
// ones.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	xerrors "Monad-Agent-Kit/internal/errors"
)

// Record 保存一个会话当前绑定的远端资源。
type Record struct {
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Store 抽象会话绑定关系的持久化接口。Load 的第二个返回值表示
// 会话是否存在。
type Store interface {
	Save(ctx context.Context, key string, record Record) error
	Load(ctx context.Context, key string) (Record, bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore 以内存方式保存会话绑定，主要用于测试与本地开发。
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryStore 创建 MemoryStore。ttl 为零时记录永不过期。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Save 实现 Store 接口。
func (m *MemoryStore) Save(_ context.Context, key string, record Record) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "会话 key 不能为空")
	}
	if record.UpdatedAt == 0 {
		record.UpdatedAt = time.Now().Unix()
	}

	entry := memoryEntry{record: record}
	if m.ttl > 0 {
		entry.expiresAt = time.Now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Load 返回会话绑定，过期的记录视为不存在。
func (m *MemoryStore) Load(_ context.Context, key string) (Record, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return Record{}, false, nil
	}
	return entry.record, true, nil
}

// Delete 移除会话绑定。
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
