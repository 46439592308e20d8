package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/feelins/flask-admin/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrator 基于 golang-migrate 管理表结构，每种驱动一套迁移脚本
type Migrator struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// NewMigrator 创建 Migrator
func NewMigrator(db *sql.DB, driver string, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, driver: driver, logger: logger}
}

// RunMigrations 执行数据库迁移
// 自动检测当前版本并应用所有未执行的迁移
func RunMigrations(db *sql.DB, driver string, logger *zap.Logger) error {
	return NewMigrator(db, driver, logger).Up()
}

// Up 应用全部未执行的迁移
func (m *Migrator) Up() error {
	mg, err := m.instance()
	if err != nil {
		return err
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	m.logVersion(mg)
	return nil
}

// ResetSchema 回滚全部迁移后重新建表，等价于 drop_all + create_all
func (m *Migrator) ResetSchema(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mg, err := m.instance()
	if err != nil {
		return err
	}

	if err := mg.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("回滚迁移失败: %w", err)
	}
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("重建表结构失败: %w", err)
	}

	m.logger.Info("表结构已重建")
	m.logVersion(mg)
	return nil
}

// instance 构造 migrate 实例
// 注意不要调用 Close：它会连带关闭共享的 *sql.DB
func (m *Migrator) instance() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+m.driver)
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}

	var driver database.Driver
	switch m.driver {
	case config.DriverPostgres:
		driver, err = postgres.WithInstance(m.db, &postgres.Config{})
	case config.DriverSQLite:
		driver, err = sqlite3.WithInstance(m.db, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("不支持的迁移驱动: %s", m.driver)
	}
	if err != nil {
		return nil, fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", source, m.driver, driver)
	if err != nil {
		return nil, fmt.Errorf("初始化迁移实例失败: %w", err)
	}
	return mg, nil
}

func (m *Migrator) logVersion(mg *migrate.Migrate) {
	version, dirty, err := mg.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		m.logger.Info("数据库尚无迁移记录")
	case dirty:
		m.logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	default:
		m.logger.Info("数据库迁移完成", zap.Uint("version", version))
	}
}
