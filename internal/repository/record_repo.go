package repository

import (
	"context"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// createBatchSize 批量写入时每条 INSERT 的行数
const createBatchSize = 100

// RecordRepository 按表描述操作任意后台模型的数据访问接口
type RecordRepository interface {
	List(ctx context.Context, t *Table, q *ListQuery) ([]interface{}, int64, error)
	GetByID(ctx context.Context, t *Table, id string) (interface{}, error)
	Create(ctx context.Context, record interface{}) error
	Save(ctx context.Context, record interface{}) error
	UpdateColumn(ctx context.Context, t *Table, id string, column string, value interface{}) error
	Delete(ctx context.Context, t *Table, id string) error
	// CreateAll 在同一事务内写入多个记录切片（*[]T），任一失败则全部回滚
	CreateAll(ctx context.Context, batches ...interface{}) error
}

type recordRepo struct {
	db *gorm.DB
}

// NewRecordRepo 创建 RecordRepository 实例
func NewRecordRepo(db *gorm.DB) RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) List(ctx context.Context, t *Table, q *ListQuery) ([]interface{}, int64, error) {
	if q == nil {
		q = &ListQuery{}
	}

	base := r.db.WithContext(ctx).Model(t.New())
	base = applySearch(base, q)
	base = applyFilters(base, q)
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dest := t.NewSlice()
	query := applyOrder(base, q, t.PrimaryKey().DBName)
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.Find(dest).Error; err != nil {
		return nil, 0, err
	}

	return Elements(dest), total, nil
}

func (r *recordRepo) GetByID(ctx context.Context, t *Table, id string) (interface{}, error) {
	pk, err := t.ParseID(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}

	record := t.New()
	err = r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: t.PrimaryKey().DBName}, Value: pk}).
		First(record).Error
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *recordRepo) Create(ctx context.Context, record interface{}) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *recordRepo) Save(ctx context.Context, record interface{}) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *recordRepo) UpdateColumn(ctx context.Context, t *Table, id string, column string, value interface{}) error {
	pk, err := t.ParseID(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}

	result := r.db.WithContext(ctx).
		Model(t.New()).
		Where(clause.Eq{Column: clause.Column{Name: t.PrimaryKey().DBName}, Value: pk}).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recordRepo) Delete(ctx context.Context, t *Table, id string) error {
	pk, err := t.ParseID(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}

	result := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: t.PrimaryKey().DBName}, Value: pk}).
		Delete(t.New())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recordRepo) CreateAll(ctx context.Context, batches ...interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, batch := range batches {
			if reflect.Indirect(reflect.ValueOf(batch)).Len() == 0 {
				continue
			}
			if err := tx.CreateInBatches(batch, createBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
