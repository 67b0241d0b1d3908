package filestore

import (
	"context"

	"project-schedule-api/internal/domain/repository"
	apperrors "project-schedule-api/pkg/errors"
)

// DocumentStore 基于文件存储的文档仓储：加锁、写入、释放
type DocumentStore struct {
	store *Store
}

var _ repository.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore 创建文档仓储
func NewDocumentStore(store *Store) *DocumentStore {
	return &DocumentStore{store: store}
}

// Load 读取文档，不存在时返回 nil
func (d *DocumentStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := d.store.Read()
	if raw == nil {
		return nil, nil
	}
	return raw, nil
}

// Save 原样写入文档
func (d *DocumentStore) Save(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.store.AcquireLock() {
		return apperrors.ErrLockHeld
	}
	defer d.store.ReleaseLock()

	if !d.store.Write(doc) {
		return apperrors.ErrWriteFailed.WithDetail("atomic write to " + d.store.Path() + " failed")
	}
	return nil
}
