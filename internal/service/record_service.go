package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/internal/model"
	"github.com/feelins/flask-admin/internal/repository"
)

// ── 后台记录业务错误 ──

var (
	ErrRecordNotFound    = errors.New("记录不存在")
	ErrOperationDisabled = errors.New("该视图未开放此操作")
	ErrColumnNotEditable = errors.New("该列不允许编辑")
	ErrInvalidFilter     = errors.New("筛选条件无效")
	ErrInvalidSort       = errors.New("排序列无效")
)

const duplicateValueMsg = "该值已存在"

// RecordService 后台记录业务接口，按视图配置完成增删改查
type RecordService interface {
	List(ctx context.Context, v *admin.ModelView, req *dto.ListRequest) (*dto.ListResponse, error)
	Get(ctx context.Context, v *admin.ModelView, id string) (*dto.RecordDetailResponse, error)
	// NewForm 空白新建表单
	NewForm(v *admin.ModelView) (*dto.FormResponse, error)
	// EditForm 以记录当前值填充的编辑表单
	EditForm(ctx context.Context, v *admin.ModelView, id string) (*dto.FormResponse, error)
	// Create 返回新记录主键；校验失败时返回 FieldErrors
	Create(ctx context.Context, v *admin.ModelView, form dto.RecordForm) (string, error)
	Update(ctx context.Context, v *admin.ModelView, id string, form dto.RecordForm) error
	// UpdateField 列表行内编辑单列
	UpdateField(ctx context.Context, v *admin.ModelView, id, column, value string) (*dto.FieldValue, error)
	Delete(ctx context.Context, v *admin.ModelView, id string) error
}

type recordService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRecordService 创建 RecordService 实例
func NewRecordService(repo *repository.Repository, logger *zap.Logger) RecordService {
	return &recordService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *recordService) List(ctx context.Context, v *admin.ModelView, req *dto.ListRequest) (*dto.ListResponse, error) {
	if req == nil {
		req = &dto.ListRequest{}
	}
	q, err := buildQuery(v, req)
	if err != nil {
		return nil, err
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	q.Offset = (page - 1) * v.PageSize
	q.Limit = v.PageSize

	t := v.Table()
	records, total, err := s.repo.Record.List(ctx, t, q)
	if err != nil {
		s.logger.Error("查询列表失败", zap.String("endpoint", v.Endpoint), zap.Error(err))
		return nil, err
	}

	resp := &dto.ListResponse{
		Columns:   make([]dto.ColumnHeader, 0, len(v.ColumnList)),
		Rows:      make([]dto.RowResponse, 0, len(records)),
		Filters:   filterOptions(v),
		Active:    req.Filters,
		Search:    req.Search,
		Sort:      q.SortColumn,
		Desc:      q.SortDesc,
		Total:     total,
		Page:      page,
		PageSize:  v.PageSize,
		PageCount: int((total + int64(v.PageSize) - 1) / int64(v.PageSize)),
	}
	for _, c := range v.ColumnList {
		resp.Columns = append(resp.Columns, dto.ColumnHeader{
			Name:      c,
			Label:     v.Label(c),
			Sortable:  v.IsSortable(c),
			Editable:  v.CanEdit && v.IsEditable(c),
			InputType: inputType(t, c),
		})
	}
	for _, rec := range records {
		row := dto.RowResponse{ID: t.ID(ctx, rec), Cells: make([]dto.Cell, 0, len(v.ColumnList))}
		for _, c := range v.ColumnList {
			row.Cells = append(row.Cells, dto.Cell{Column: c, Text: formatValue(t.Value(ctx, rec, c))})
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

// buildQuery 校验并转换列表请求，不含分页
func buildQuery(v *admin.ModelView, req *dto.ListRequest) (*repository.ListQuery, error) {
	t := v.Table()
	q := &repository.ListQuery{}

	if v.IsSearchable() {
		q.SearchColumns = v.ColumnSearchableList
		q.SearchTerms = strings.Fields(req.Search)
	}

	for _, p := range req.Filters {
		op := repository.FilterOp(p.Op)
		if !containsOp(v.FilterOps(p.Column), op) {
			return nil, fmt.Errorf("%w: %s %s", ErrInvalidFilter, p.Column, p.Op)
		}
		values, err := filterValues(t, p.Column, op, p.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", ErrInvalidFilter, p.Column, p.Op, err)
		}
		q.Filters = append(q.Filters, repository.Filter{
			Column: p.Column,
			Kind:   t.Kind(p.Column),
			Op:     op,
			Values: values,
		})
	}

	if req.Sort != "" {
		if !v.IsSortable(req.Sort) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSort, req.Sort)
		}
		q.SortColumn = req.Sort
		q.SortDesc = req.Desc
	}
	return q, nil
}

func filterOptions(v *admin.ModelView) []dto.FilterOption {
	out := make([]dto.FilterOption, 0, len(v.ColumnFilters))
	for _, c := range v.ColumnFilters {
		opt := dto.FilterOption{Column: c, Label: v.Label(c)}
		for _, op := range v.FilterOps(c) {
			opt.Ops = append(opt.Ops, dto.OpOption{Op: string(op), Label: admin.OpLabel(op)})
		}
		out = append(out, opt)
	}
	return out
}

func containsOp(ops []repository.FilterOp, op repository.FilterOp) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

// ────────────────────── Get ──────────────────────

func (s *recordService) Get(ctx context.Context, v *admin.ModelView, id string) (*dto.RecordDetailResponse, error) {
	if !v.CanViewDetails {
		return nil, ErrOperationDisabled
	}
	rec, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}

	t := v.Table()
	resp := &dto.RecordDetailResponse{ID: t.ID(ctx, rec), Title: displayName(rec)}
	for _, c := range v.ColumnDetailsList {
		resp.Fields = append(resp.Fields, dto.FieldValue{
			Column: c,
			Label:  v.Label(c),
			Text:   formatValue(t.Value(ctx, rec, c)),
		})
	}
	return resp, nil
}

// ────────────────────── Forms ──────────────────────

func (s *recordService) NewForm(v *admin.ModelView) (*dto.FormResponse, error) {
	if !v.CanCreate {
		return nil, ErrOperationDisabled
	}
	return BuildForm(v, "", nil, nil), nil
}

func (s *recordService) EditForm(ctx context.Context, v *admin.ModelView, id string) (*dto.FormResponse, error) {
	if !v.CanEdit {
		return nil, ErrOperationDisabled
	}
	rec, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}

	t := v.Table()
	values := make(dto.RecordForm, len(v.FormColumns))
	for _, c := range v.FormColumns {
		values[c] = formatValue(t.Value(ctx, rec, c))
	}
	return BuildForm(v, t.ID(ctx, rec), values, nil), nil
}

// BuildForm 以给定值和错误信息构造表单，用于首次展示或校验失败后回显
func BuildForm(v *admin.ModelView, id string, values dto.RecordForm, errs FieldErrors) *dto.FormResponse {
	t := v.Table()
	form := &dto.FormResponse{ID: id, Fields: make([]dto.FormField, 0, len(v.FormColumns))}
	for _, c := range v.FormColumns {
		field := dto.FormField{
			Column:    c,
			Label:     v.Label(c),
			Value:     values[c],
			InputType: inputType(t, c),
			Error:     errs[c],
		}
		if f, ok := t.Field(c); ok && t.Kind(c) == repository.KindText {
			field.MaxLength = f.Size
		}
		form.Fields = append(form.Fields, field)
	}
	return form
}

// ────────────────────── Create ──────────────────────

func (s *recordService) Create(ctx context.Context, v *admin.ModelView, form dto.RecordForm) (string, error) {
	if !v.CanCreate {
		return "", ErrOperationDisabled
	}

	t := v.Table()
	rec := t.New()
	if err := s.applyForm(ctx, v, rec, form); err != nil {
		return "", err
	}

	if err := s.repo.Record.Create(ctx, rec); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", duplicateErrors(t, v.FormColumns)
		}
		s.logger.Error("创建记录失败", zap.String("endpoint", v.Endpoint), zap.Error(err))
		return "", err
	}

	id := t.ID(ctx, rec)
	s.logger.Info("记录已创建", zap.String("endpoint", v.Endpoint), zap.String("id", id))
	return id, nil
}

// ────────────────────── Update ──────────────────────

func (s *recordService) Update(ctx context.Context, v *admin.ModelView, id string, form dto.RecordForm) error {
	if !v.CanEdit {
		return ErrOperationDisabled
	}
	rec, err := s.load(ctx, v, id)
	if err != nil {
		return err
	}
	if err := s.applyForm(ctx, v, rec, form); err != nil {
		return err
	}

	if err := s.repo.Record.Save(ctx, rec); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return duplicateErrors(v.Table(), v.FormColumns)
		}
		s.logger.Error("更新记录失败", zap.String("endpoint", v.Endpoint), zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("记录已更新", zap.String("endpoint", v.Endpoint), zap.String("id", id))
	return nil
}

func (s *recordService) UpdateField(ctx context.Context, v *admin.ModelView, id, column, value string) (*dto.FieldValue, error) {
	if !v.CanEdit {
		return nil, ErrOperationDisabled
	}
	if !v.IsEditable(column) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotEditable, column)
	}

	t := v.Table()
	parsed, err := parseFieldValue(t, column, value)
	if err != nil {
		return nil, FieldErrors{column: err.Error()}
	}

	if err := s.repo.Record.UpdateColumn(ctx, t, id, column, parsed); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, FieldErrors{column: duplicateValueMsg}
		}
		s.logger.Error("行内编辑失败",
			zap.String("endpoint", v.Endpoint),
			zap.String("id", id),
			zap.String("column", column),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("记录字段已更新", zap.String("endpoint", v.Endpoint), zap.String("id", id), zap.String("column", column))
	return &dto.FieldValue{Column: column, Label: v.Label(column), Text: formatValue(parsed)}, nil
}

// ────────────────────── Delete ──────────────────────

func (s *recordService) Delete(ctx context.Context, v *admin.ModelView, id string) error {
	if !v.CanDelete {
		return ErrOperationDisabled
	}
	if err := s.repo.Record.Delete(ctx, v.Table(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		s.logger.Error("删除记录失败", zap.String("endpoint", v.Endpoint), zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("记录已删除", zap.String("endpoint", v.Endpoint), zap.String("id", id))
	return nil
}

// ────────────────────── helpers ──────────────────────

func (s *recordService) load(ctx context.Context, v *admin.ModelView, id string) (interface{}, error) {
	rec, err := s.repo.Record.GetByID(ctx, v.Table(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		s.logger.Error("查询记录失败", zap.String("endpoint", v.Endpoint), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// applyForm 逐列解析表单值并写入记录，收集全部字段错误
func (s *recordService) applyForm(ctx context.Context, v *admin.ModelView, rec interface{}, form dto.RecordForm) error {
	t := v.Table()
	errs := FieldErrors{}
	for _, c := range v.FormColumns {
		raw, ok := form[c]
		// 未提交的列保持原值，未勾选的复选框不会出现在表单中
		if !ok && t.Kind(c) != repository.KindBool {
			continue
		}
		value, err := parseFieldValue(t, c, raw)
		if err != nil {
			errs[c] = err.Error()
			continue
		}
		if err := t.Set(ctx, rec, c, value); err != nil {
			errs[c] = err.Error()
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// duplicateErrors 将唯一约束冲突归到表单中的唯一列上
func duplicateErrors(t *repository.Table, columns []string) FieldErrors {
	errs := FieldErrors{}
	for _, c := range columns {
		if f, ok := t.Field(c); ok && f.Unique {
			errs[c] = duplicateValueMsg
		}
	}
	if len(errs) == 0 {
		errs[""] = duplicateValueMsg
	}
	return errs
}

func displayName(rec interface{}) string {
	if r, ok := rec.(model.Record); ok {
		return r.DisplayName()
	}
	return ""
}
