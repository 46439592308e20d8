package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ErrInvalidID 主键格式与列类型不符
var ErrInvalidID = errors.New("主键格式无效")

// FieldKind 字段的管理界面类型，决定表单解析与可用筛选
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindTime
	KindBool
)

// Table 模型表描述：模型原型 + GORM 解析出的 schema
type Table struct {
	Schema *schema.Schema
	typ    reflect.Type
}

// NewTable 解析模型结构并返回表描述
func NewTable(db *gorm.DB, model interface{}) (*Table, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("解析模型 %T 失败: %w", model, err)
	}
	if stmt.Schema.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("模型 %T 缺少主键", model)
	}
	return &Table{
		Schema: stmt.Schema,
		typ:    stmt.Schema.ModelType,
	}, nil
}

// Name 数据库表名
func (t *Table) Name() string { return t.Schema.Table }

// ModelName 模型结构体名称
func (t *Table) ModelName() string { return t.typ.Name() }

// New 创建一条空记录（指针）
func (t *Table) New() interface{} { return reflect.New(t.typ).Interface() }

// NewSlice 创建记录切片指针 *[]T，供 Find 使用
func (t *Table) NewSlice() interface{} {
	return reflect.New(reflect.SliceOf(t.typ)).Interface()
}

// Columns 全部列名，按结构体声明顺序
func (t *Table) Columns() []string {
	return append([]string(nil), t.Schema.DBNames...)
}

// PrimaryKey 主键字段
func (t *Table) PrimaryKey() *schema.Field { return t.Schema.PrioritizedPrimaryField }

// Field 按列名查找字段
func (t *Table) Field(column string) (*schema.Field, bool) {
	f, ok := t.Schema.FieldsByDBName[column]
	return f, ok
}

// Kind 返回列的字段类型
func (t *Table) Kind(column string) FieldKind {
	f, ok := t.Field(column)
	if !ok {
		return KindText
	}
	switch f.DataType {
	case schema.Int, schema.Uint, schema.Float:
		return KindNumber
	case schema.Time:
		return KindTime
	case schema.Bool:
		return KindBool
	default:
		return KindText
	}
}

// Nullable 字段是否为指针类型（可存 NULL）
func (t *Table) Nullable(column string) bool {
	f, ok := t.Field(column)
	return ok && f.FieldType.Kind() == reflect.Ptr
}

// Value 读取记录某列的值，指针字段为 nil 时返回 nil
func (t *Table) Value(ctx context.Context, record interface{}, column string) interface{} {
	f, ok := t.Field(column)
	if !ok {
		return nil
	}
	v, zero := f.ValueOf(ctx, reflect.Indirect(reflect.ValueOf(record)))
	if zero && f.FieldType.Kind() == reflect.Ptr {
		return nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

// Set 设置记录某列的值
func (t *Table) Set(ctx context.Context, record interface{}, column string, value interface{}) error {
	f, ok := t.Field(column)
	if !ok {
		return fmt.Errorf("模型 %s 不存在列 %s", t.ModelName(), column)
	}
	return f.Set(ctx, reflect.Indirect(reflect.ValueOf(record)), value)
}

// ID 返回记录主键的字符串形式
func (t *Table) ID(ctx context.Context, record interface{}) string {
	return fmt.Sprint(t.Value(ctx, record, t.PrimaryKey().DBName))
}

// ParseID 将字符串主键转换为主键列类型
func (t *Table) ParseID(id string) (interface{}, error) {
	switch t.PrimaryKey().DataType {
	case schema.Uint:
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		return n, nil
	case schema.Int:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		return n, nil
	default:
		if id == "" {
			return nil, ErrInvalidID
		}
		return id, nil
	}
}

// Elements 将 *[]T 展开为逐条记录指针
func Elements(slice interface{}) []interface{} {
	v := reflect.Indirect(reflect.ValueOf(slice))
	out := make([]interface{}, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = v.Index(i).Addr().Interface()
	}
	return out
}
