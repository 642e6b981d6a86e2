package chat

import "context"

// Store 抽象问答任务状态的持久化接口。
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Claim(ctx context.Context, id string) (*Job, error)
	MarkSucceeded(ctx context.Context, id string, answer string) error
	MarkFailed(ctx context.Context, id string, code string, lastError string, terminal bool) error
	Close() error
}
