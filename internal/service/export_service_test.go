package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/internal/repository"
	"github.com/feelins/flask-admin/pkg/spreadsheet"
)

func setupTestExport(t *testing.T, maxRows int) (ExportService, RecordService, *admin.Admin) {
	t.Helper()
	db := setupTestDB(t)
	a := setupTestAdmin(t, db)
	repo := repository.NewRepository(db)
	return NewExportService(repo, maxRows, zap.NewNop()), NewRecordService(repo, zap.NewNop()), a
}

func TestExportService_CSV(t *testing.T) {
	exp, rec, a := setupTestExport(t, 0)
	v := mustView(t, a, "information")
	ctx := context.Background()

	for _, name := range []string{"b", "a", "c"} {
		if _, err := rec.Create(ctx, v, dto.RecordForm{"lang": "zh", "name": name, "update_date": "2022-10-10"}); err != nil {
			t.Fatal(err)
		}
	}

	buf, filename, err := exp.Export(ctx, v, &dto.ListRequest{Sort: "name", Page: 5}, admin.ExportCSV)
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if !strings.HasPrefix(filename, "Information_") || !strings.HasSuffix(filename, ".csv") {
		t.Errorf("文件名不符: %s", filename)
	}

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("CSV 解析失败: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("导出不分页，期望 1 行表头 + 3 行数据，实际 %d", len(rows))
	}
	wantHeader := []string{"语言", "性别", "姓名", "时长", "代号", "Update Date"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("表头第 %d 列期望 %s，实际 %s", i, h, rows[0][i])
		}
	}
	if rows[1][2] != "a" || rows[3][2] != "c" {
		t.Errorf("导出应遵循排序: %v", rows)
	}
	if rows[1][5] != "2022-10-10 00:00:00" {
		t.Errorf("时间格式不符: %s", rows[1][5])
	}
}

func TestExportService_XLSXWithFilterAndLimit(t *testing.T) {
	exp, rec, a := setupTestExport(t, 1)
	v := mustView(t, a, "evaluation")
	ctx := context.Background()

	for _, lang := range []string{"zh", "en", "zh"} {
		if _, err := rec.Create(ctx, v, dto.RecordForm{"lang": lang}); err != nil {
			t.Fatal(err)
		}
	}

	buf, filename, err := exp.Export(ctx, v, &dto.ListRequest{
		Filters: []dto.FilterParam{{Column: "lang", Op: "eq", Value: "zh"}},
	}, admin.ExportXLSX)
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名不符: %s", filename)
	}

	sheet, err := spreadsheet.Load(buf, 0, 0)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}
	if len(sheet.Columns) != 3 || sheet.Columns[0] != "语言" || sheet.Columns[1] != "分类" {
		t.Errorf("表头不符: %v", sheet.Columns)
	}
	if len(sheet.Rows) != 1 {
		t.Errorf("export_max_rows=1 时应只导出 1 行，实际 %d", len(sheet.Rows))
	}
}

func TestExportService_Errors(t *testing.T) {
	exp, _, a := setupTestExport(t, 0)
	v := mustView(t, a, "version")
	ctx := context.Background()

	if _, _, err := exp.Export(ctx, v, nil, "pdf"); !errors.Is(err, ErrExportFormat) {
		t.Errorf("期望 ErrExportFormat，实际: %v", err)
	}

	disabled := *v
	disabled.CanExport = false
	if _, _, err := exp.Export(ctx, &disabled, nil, admin.ExportCSV); !errors.Is(err, ErrOperationDisabled) {
		t.Errorf("期望 ErrOperationDisabled，实际: %v", err)
	}

	if _, _, err := exp.Export(ctx, v, &dto.ListRequest{Sort: "id"}, admin.ExportCSV); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("期望 ErrInvalidSort，实际: %v", err)
	}
}

func TestExportService_RepoError(t *testing.T) {
	db := setupTestDB(t)
	a := setupTestAdmin(t, db)
	dbErr := errors.New("disk I/O error")
	exp := NewExportService(&repository.Repository{Record: &mockRecordRepo{listErr: dbErr}}, 0, zap.NewNop())

	if _, _, err := exp.Export(context.Background(), mustView(t, a, "version"), nil, admin.ExportCSV); !errors.Is(err, dbErr) {
		t.Errorf("期望透传数据库错误，实际: %v", err)
	}
}
