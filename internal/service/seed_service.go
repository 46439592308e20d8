package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/internal/model"
	"github.com/feelins/flask-admin/internal/repository"
	"github.com/feelins/flask-admin/pkg/spreadsheet"
)

// ErrSheetTooFewColumns 工作表列数不足以按位置映射字段
var ErrSheetTooFewColumns = errors.New("工作表列数不足")

// 发音人信息表的列位置
const (
	infoLangCol     = 2
	infoNameCol     = 3
	infoGenderCol   = 4
	infoDurationCol = 5
)

// 评测表的列位置
const (
	evalLangCol        = 0
	evalDateCol        = 6
	evalSentenceNumCol = 7
	evalPersonNumCol   = 8
)

// SchemaResetter 清空并重建表结构
type SchemaResetter interface {
	ResetSchema(ctx context.Context) error
}

// SeedService 示例数据导入
type SeedService interface {
	// Seed 读取表格、重建表结构并在单个事务内写入全部记录
	Seed(ctx context.Context) (*dto.SeedResult, error)
}

type seedService struct {
	cfg    *config.SeedConfig
	repo   *repository.Repository
	schema SchemaResetter
	load   func(path string, sheet, headerRow int) (*spreadsheet.Sheet, error)
	logger *zap.Logger
}

// NewSeedService 创建 SeedService 实例
func NewSeedService(cfg *config.SeedConfig, repo *repository.Repository, schema SchemaResetter, logger *zap.Logger) SeedService {
	return &seedService{
		cfg:    cfg,
		repo:   repo,
		schema: schema,
		load:   spreadsheet.LoadFile,
		logger: logger,
	}
}

func (s *seedService) Seed(ctx context.Context) (*dto.SeedResult, error) {
	// 1. 先读取全部表格，读取失败时不触碰现有数据
	infos, err := s.loadInformation()
	if err != nil {
		return nil, err
	}
	evals, err := s.loadEvaluation()
	if err != nil {
		return nil, err
	}
	versions := []model.Version{{}}

	// 2. 重建表结构
	if err := s.schema.ResetSchema(ctx); err != nil {
		s.logger.Error("重建表结构失败", zap.Error(err))
		return nil, fmt.Errorf("重建表结构失败: %w", err)
	}

	// 3. 一次提交
	if err := s.repo.Record.CreateAll(ctx, &infos, &evals, &versions); err != nil {
		s.logger.Error("写入示例数据失败", zap.Error(err))
		return nil, fmt.Errorf("写入示例数据失败: %w", err)
	}

	result := &dto.SeedResult{
		Information: len(infos),
		Evaluation:  len(evals),
		Version:     len(versions),
	}
	s.logger.Info("示例数据导入完成",
		zap.Int("information", result.Information),
		zap.Int("evaluation", result.Evaluation),
		zap.Int("version", result.Version),
	)
	return result, nil
}

func (s *seedService) loadInformation() ([]model.Information, error) {
	src := s.cfg.Information
	if src.File == "" {
		s.logger.Warn("未配置发音人信息表格，跳过导入")
		return []model.Information{}, nil
	}
	sheet, err := s.load(src.File, src.Sheet, src.HeaderRow)
	if err != nil {
		return nil, err
	}
	cols, err := columnsAt(sheet, infoLangCol, infoNameCol, infoGenderCol, infoDurationCol)
	if err != nil {
		return nil, err
	}

	out := make([]model.Information, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		out = append(out, model.Information{
			Lang:     row[cols[0]],
			Name:     row[cols[1]],
			Gender:   row[cols[2]],
			Duration: row[cols[3]],
		})
	}
	return out, nil
}

func (s *seedService) loadEvaluation() ([]model.Evaluation, error) {
	src := s.cfg.Evaluation
	if src.File == "" {
		s.logger.Warn("未配置评测表格，跳过导入")
		return []model.Evaluation{}, nil
	}
	sheet, err := s.load(src.File, src.Sheet, src.HeaderRow)
	if err != nil {
		return nil, err
	}
	cols, err := columnsAt(sheet, evalLangCol, evalDateCol, evalSentenceNumCol, evalPersonNumCol)
	if err != nil {
		return nil, err
	}

	out := make([]model.Evaluation, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		out = append(out, model.Evaluation{
			Lang:           row[cols[0]],
			MosType:        "",
			MosDate:        ParseCompactDate(row[cols[1]]),
			MosSentenceNum: CleanNumber(row[cols[2]]),
			MosPersonNum:   CleanNumber(row[cols[3]]),
		})
	}
	return out, nil
}

func columnsAt(sheet *spreadsheet.Sheet, positions ...int) ([]string, error) {
	out := make([]string, len(positions))
	for i, p := range positions {
		name, ok := sheet.Column(p)
		if !ok {
			return nil, fmt.Errorf("%w: 工作表 %s 共 %d 列，需要第 %d 列", ErrSheetTooFewColumns, sheet.Name, len(sheet.Columns), p+1)
		}
		out[i] = name
	}
	return out, nil
}

// CleanNumber 去掉表格数字的 ".0" 尾缀，nan 视为空
func CleanNumber(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return strings.TrimSuffix(s, ".0")
}

// ParseCompactDate 解析 YYYYMMDD 日期，无法解析时返回 nil
func ParseCompactDate(s string) *time.Time {
	s = CleanNumber(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation("20060102", s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}
