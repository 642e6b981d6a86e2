package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"Monad-Agent-Kit/internal/history"
)

// ExchangeRepository 使用 MySQL 持久化问答记录。
type ExchangeRepository struct {
	db *sql.DB
}

// NewExchangeRepository 创建连接池并执行待应用的迁移。
func NewExchangeRepository(ctx context.Context, cfg Config) (*ExchangeRepository, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repo := &ExchangeRepository{db: db}
	if err := repo.runMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// Save 将一轮问答写入 MySQL。
func (r *ExchangeRepository) Save(ctx context.Context, exchange history.Exchange) error {
	const stmt = `INSERT INTO exchanges
        (id, thread_id, assistant_id, question, answer, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, stmt,
		exchange.ID,
		exchange.ThreadID,
		exchange.AssistantID,
		exchange.Question,
		exchange.Answer,
		exchange.CreatedAt,
	); err != nil {
		return fmt.Errorf("写入问答记录失败: %w", err)
	}
	return nil
}

// ListLatest 查询最近的若干条问答记录，按时间倒序排列。
func (r *ExchangeRepository) ListLatest(ctx context.Context, limit int) ([]history.Exchange, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, thread_id, assistant_id, question, answer, created_at
        FROM exchanges ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询问答记录失败: %w", err)
	}
	defer rows.Close()

	var exchanges []history.Exchange
	for rows.Next() {
		var exchange history.Exchange
		if err := rows.Scan(
			&exchange.ID,
			&exchange.ThreadID,
			&exchange.AssistantID,
			&exchange.Question,
			&exchange.Answer,
			&exchange.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("解析问答记录失败: %w", err)
		}
		exchanges = append(exchanges, exchange)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历问答记录失败: %w", err)
	}
	return exchanges, nil
}

// Close 关闭底层数据库连接。
func (r *ExchangeRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

var _ history.Store = (*ExchangeRepository)(nil)
