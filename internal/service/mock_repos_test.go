package service

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/model"
	"github.com/feelins/flask-admin/internal/repository"
	"github.com/feelins/flask-admin/internal/views"
)

// ── Mock RecordRepository ──

type mockRecordRepo struct {
	listResult   []interface{}
	listTotal    int64
	listErr      error
	lastQuery    *repository.ListQuery
	getResult    interface{}
	getErr       error
	createErr    error
	saveErr      error
	updateErr    error
	deleteErr    error
	createAllErr error
}

func (m *mockRecordRepo) List(_ context.Context, _ *repository.Table, q *repository.ListQuery) ([]interface{}, int64, error) {
	m.lastQuery = q
	return m.listResult, m.listTotal, m.listErr
}

func (m *mockRecordRepo) GetByID(_ context.Context, _ *repository.Table, _ string) (interface{}, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getResult == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.getResult, nil
}

func (m *mockRecordRepo) Create(_ context.Context, _ interface{}) error { return m.createErr }

func (m *mockRecordRepo) Save(_ context.Context, _ interface{}) error { return m.saveErr }

func (m *mockRecordRepo) UpdateColumn(_ context.Context, _ *repository.Table, _ string, _ string, _ interface{}) error {
	return m.updateErr
}

func (m *mockRecordRepo) Delete(_ context.Context, _ *repository.Table, _ string) error {
	return m.deleteErr
}

func (m *mockRecordRepo) CreateAll(_ context.Context, _ ...interface{}) error { return m.createAllErr }

// ── Mock SchemaResetter ──

// gormSchemaResetter 以 AutoMigrate 代替迁移脚本重建测试库
type gormSchemaResetter struct {
	db    *gorm.DB
	calls int
	err   error
}

func (r *gormSchemaResetter) ResetSchema(_ context.Context) error {
	r.calls++
	if r.err != nil || r.db == nil {
		return r.err
	}
	models := []interface{}{&model.Information{}, &model.Evaluation{}, &model.Version{}}
	if err := r.db.Migrator().DropTable(models...); err != nil {
		return err
	}
	return r.db.AutoMigrate(models...)
}

// ── 测试辅助 ──

// setupTestDB 每个测试独立的内存 SQLite
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.Information{}, &model.Evaluation{}, &model.Version{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// setupTestAdmin 注册应用全部视图
func setupTestAdmin(t *testing.T, db *gorm.DB) *admin.Admin {
	t.Helper()
	a := admin.New(db, &config.AdminConfig{Title: "Example: Layout-BS3", BasePath: "/admin", PageSize: 20})
	if err := views.Register(a); err != nil {
		t.Fatalf("注册视图失败: %v", err)
	}
	return a
}

func mustView(t *testing.T, a *admin.Admin, endpoint string) *admin.ModelView {
	t.Helper()
	v, ok := a.ModelView(endpoint)
	if !ok {
		t.Fatalf("视图 %s 不存在", endpoint)
	}
	return v
}
