package postgres

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"project-schedule-api/internal/domain/repository"
)

// TxManager 事务管理器
type TxManager struct {
	client *Client
	opts   *sql.TxOptions
}

var _ repository.Transactor = (*TxManager)(nil)

// NewTxManager 创建可串行化事务管理器
// 并发的整体替换可能因串行化冲突失败，由数据集服务的写入重试兜底
func NewTxManager(client *Client) *TxManager {
	return &TxManager{client: client, opts: &sql.TxOptions{Isolation: sql.LevelSerializable}}
}

// WithTransaction 在事务中执行 fn；ctx 已携带事务时复用
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "postgres.Transaction")
	defer span.End()

	err := m.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, repository.TxKey{}, tx))
	}, m.opts)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// getDB 返回 ctx 中的事务，否则返回连接池
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
