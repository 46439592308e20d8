package service

import (
	"go.uber.org/zap"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/repository"
	"github.com/feelins/flask-admin/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Record RecordService
	Export ExportService
	Seed   SeedService
	Auth   AuthService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	schema SchemaResetter,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) *Service {
	return &Service{
		Record: NewRecordService(repo, logger),
		Export: NewExportService(repo, cfg.Admin.ExportMaxRows, logger),
		Seed:   NewSeedService(&cfg.Seed, repo, schema, logger),
		Auth:   NewAuthService(&cfg.Auth, jwtMgr, logger),
	}
}
