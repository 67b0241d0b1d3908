package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/internal/domain/repository"
	apperrors "project-schedule-api/pkg/errors"
)

const batchSize = 200

// DocumentStore 以关系表承载整个数据集文档
type DocumentStore struct {
	client   *Client
	tx       *TxManager
	validate *validator.Validate
}

var _ repository.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore 创建关系型文档仓储
func NewDocumentStore(client *Client, tx *TxManager, v *validator.Validate) *DocumentStore {
	return &DocumentStore{client: client, tx: tx, validate: v}
}

// Load 并发读取各集合并拼成文档
// 所有表均为空时返回默认任务类型，调用方始终能拿到一个数据集
func (s *DocumentStore) Load(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentStore.Load")
	defer span.End()

	d := entity.EmptyDataset()
	g, gctx := errgroup.WithContext(ctx)
	db := getDB(gctx, s.client.db)

	g.Go(func() error { return db.Order("start_date ASC, id ASC").Find(&d.Projects).Error })
	g.Go(func() error { return db.Order("start_date ASC, id ASC").Find(&d.Tasks).Error })
	g.Go(func() error { return db.Order("id ASC").Find(&d.TaskTypes).Error })
	g.Go(func() error { return db.Order("id ASC").Find(&d.PMOs).Error })
	g.Go(func() error { return db.Order("id ASC").Find(&d.ProductManagers).Error })
	g.Go(func() error { return db.Order("operated_at DESC, id DESC").Find(&d.HistoryRecords).Error })

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	d.Normalize()
	if d.IsEmpty() {
		d.TaskTypes = entity.DefaultTaskTypes()
	}
	return json.Marshal(d)
}

// Save 在一个事务内整体替换所有集合
func (s *DocumentStore) Save(ctx context.Context, doc []byte) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentStore.Save")
	defer span.End()

	var d entity.Dataset
	if err := json.Unmarshal(doc, &d); err != nil {
		return apperrors.ErrValidationFailed.WithDetail(err.Error()).WithError(err)
	}
	if err := s.validateDataset(&d); err != nil {
		return err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		db := getDB(ctx, s.client.db)
		for _, m := range documentModels() {
			if err := db.Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		if err := insertAll(db, d.Projects); err != nil {
			return err
		}
		if err := insertAll(db, d.Tasks); err != nil {
			return err
		}
		if err := insertAll(db, d.TaskTypes); err != nil {
			return err
		}
		if err := insertAll(db, d.PMOs); err != nil {
			return err
		}
		if err := insertAll(db, d.ProductManagers); err != nil {
			return err
		}
		return insertAll(db, d.HistoryRecords)
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to replace dataset: %w", err)
	}
	return nil
}

func (s *DocumentStore) validateDataset(d *entity.Dataset) error {
	check := func(kind, id string, v any) error {
		if err := s.validate.Struct(v); err != nil {
			detail := fmt.Sprintf("%s %s: %s", kind, id, describeValidation(err))
			return apperrors.ErrValidationFailed.WithDetail(detail).WithError(err)
		}
		return nil
	}
	for i := range d.Projects {
		if err := check("project", d.Projects[i].ID, &d.Projects[i]); err != nil {
			return err
		}
	}
	for i := range d.Tasks {
		if err := check("task", d.Tasks[i].ID, &d.Tasks[i]); err != nil {
			return err
		}
	}
	for i := range d.TaskTypes {
		if err := check("taskType", d.TaskTypes[i].ID, &d.TaskTypes[i]); err != nil {
			return err
		}
	}
	for i := range d.PMOs {
		if err := check("pmo", d.PMOs[i].ID, &d.PMOs[i]); err != nil {
			return err
		}
	}
	for i := range d.ProductManagers {
		if err := check("productManager", d.ProductManagers[i].ID, &d.ProductManagers[i]); err != nil {
			return err
		}
	}
	for i := range d.HistoryRecords {
		if err := check("historyRecord", d.HistoryRecords[i].ID, &d.HistoryRecords[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertAll[T any](db *gorm.DB, items []T) error {
	if len(items) == 0 {
		return nil
	}
	return db.CreateInBatches(&items, batchSize).Error
}
