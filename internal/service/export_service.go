package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/internal/repository"
	"github.com/feelins/flask-admin/pkg/spreadsheet"
)

// ── 导出模块业务错误 ──

var (
	ErrExportFormat       = errors.New("不支持的导出格式")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出遵循列表当前的搜索、筛选与排序，不分页，行数受 admin.export_max_rows 限制。
// 表头使用列显示名称。
type ExportService interface {
	// Export 返回文件内容与建议文件名
	Export(ctx context.Context, v *admin.ModelView, req *dto.ListRequest, format string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo    *repository.Repository
	maxRows int
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例，maxRows 为 0 时不限制
func NewExportService(repo *repository.Repository, maxRows int, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, maxRows: maxRows, logger: logger}
}

func (s *exportService) Export(ctx context.Context, v *admin.ModelView, req *dto.ListRequest, format string) (*bytes.Buffer, string, error) {
	if !v.CanExport {
		return nil, "", ErrOperationDisabled
	}
	if !v.CanExportAs(format) {
		return nil, "", fmt.Errorf("%w: %s", ErrExportFormat, format)
	}
	if req == nil {
		req = &dto.ListRequest{}
	}

	q, err := buildQuery(v, req)
	if err != nil {
		return nil, "", err
	}
	q.Limit = s.maxRows

	t := v.Table()
	records, _, err := s.repo.Record.List(ctx, t, q)
	if err != nil {
		s.logger.Error("查询导出数据失败", zap.String("endpoint", v.Endpoint), zap.Error(err))
		return nil, "", err
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, 0, len(v.ColumnExportList))
		for _, c := range v.ColumnExportList {
			row = append(row, formatValue(t.Value(ctx, rec, c)))
		}
		rows = append(rows, row)
	}
	headers := v.Labels(v.ColumnExportList)

	var buf *bytes.Buffer
	switch format {
	case admin.ExportXLSX:
		buf, err = spreadsheet.WriteTable(v.Name, headers, rows)
	default:
		buf, err = writeCSV(headers, rows)
	}
	if err != nil {
		s.logger.Error("生成导出文件失败", zap.String("endpoint", v.Endpoint), zap.String("format", format), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s_%s.%s", v.Name, time.Now().Format("2006-01-02_15-04-05"), format)
	s.logger.Info("导出完成",
		zap.String("endpoint", v.Endpoint),
		zap.String("format", format),
		zap.Int("rows", len(rows)),
	)
	return buf, filename, nil
}

func writeCSV(headers []string, rows [][]string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf, nil
}
