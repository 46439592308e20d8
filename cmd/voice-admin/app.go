package main

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/repository"
	"github.com/feelins/flask-admin/internal/service"
	"github.com/feelins/flask-admin/internal/views"
	"github.com/feelins/flask-admin/pkg/database"
	"github.com/feelins/flask-admin/pkg/jwt"
	applogger "github.com/feelins/flask-admin/pkg/logger"
)

// app 各子命令共用的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	sqlDB  *sql.DB
	admin  *admin.Admin
	jwtMgr *jwt.Manager
	svc    *service.Service
}

// bootstrap 初始化日志、数据库（含迁移）、后台视图与 Service
func bootstrap(cfg *config.Config) (*app, error) {
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	migrator := database.NewMigrator(sqlDB, cfg.Database.Driver, logger)
	if err := migrator.Up(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	a := admin.New(db, &cfg.Admin)
	if err := views.Register(a); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("注册后台视图失败: %w", err)
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, migrator, jwtMgr, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		sqlDB:  sqlDB,
		admin:  a,
		jwtMgr: jwtMgr,
		svc:    svc,
	}, nil
}

func (a *app) close() {
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
	_ = a.logger.Sync()
}
