package admin

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/repository"
)

var (
	ErrDuplicateEndpoint = errors.New("视图 endpoint 重复")
	ErrReservedEndpoint  = errors.New("视图 endpoint 为保留字")
	ErrInvalidEndpoint   = errors.New("视图 endpoint 格式无效")
	ErrUnknownColumn     = errors.New("列不存在")
)

var reservedEndpoints = map[string]bool{"login": true, "logout": true, "static": true}

var endpointPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// MenuItem 后台导航菜单项
type MenuItem struct {
	Name     string
	Endpoint string
	URL      string
}

// Admin 后台视图注册表
type Admin struct {
	Title        string
	BasePath     string
	BaseTemplate string
	PageSize     int

	db         *gorm.DB
	menu       []MenuItem
	modelViews map[string]*ModelView
	baseViews  map[string]*BaseView
	order      []*ModelView
}

// New 创建后台注册表，db 仅用于解析模型结构
func New(db *gorm.DB, cfg *config.AdminConfig) *Admin {
	return &Admin{
		Title:        cfg.Title,
		BasePath:     strings.TrimRight(cfg.BasePath, "/"),
		BaseTemplate: cfg.BaseTemplate,
		PageSize:     cfg.PageSize,
		db:           db,
		modelViews:   make(map[string]*ModelView),
		baseViews:    make(map[string]*BaseView),
	}
}

// AddView 注册模型视图：解析表结构、补齐默认配置并校验列名
func (a *Admin) AddView(v *ModelView) error {
	if v.Model == nil {
		return fmt.Errorf("视图 %q 未指定模型", v.Name)
	}
	table, err := repository.NewTable(a.db, v.Model)
	if err != nil {
		return err
	}

	if v.Name == "" {
		v.Name = table.ModelName()
	}
	if v.Endpoint == "" {
		v.Endpoint = strings.ToLower(table.ModelName())
	}
	if err := a.checkEndpoint(v.Endpoint); err != nil {
		return err
	}

	v.table = table
	a.applyDefaults(v)
	if err := validateColumns(v); err != nil {
		return err
	}

	a.modelViews[v.Endpoint] = v
	a.order = append(a.order, v)
	a.menu = append(a.menu, MenuItem{Name: v.Name, Endpoint: v.Endpoint, URL: a.URL(v.Endpoint)})
	return nil
}

// AddBaseView 注册静态页面视图
func (a *Admin) AddBaseView(v *BaseView) error {
	if v.Template == "" {
		return fmt.Errorf("视图 %q 未指定模板", v.Name)
	}
	if v.Endpoint == "" {
		v.Endpoint = strings.ToLower(v.Name)
	}
	if err := a.checkEndpoint(v.Endpoint); err != nil {
		return err
	}
	a.baseViews[v.Endpoint] = v
	a.menu = append(a.menu, MenuItem{Name: v.Name, Endpoint: v.Endpoint, URL: a.URL(v.Endpoint)})
	return nil
}

// ModelView 按 endpoint 查找模型视图
func (a *Admin) ModelView(endpoint string) (*ModelView, bool) {
	v, ok := a.modelViews[endpoint]
	return v, ok
}

// BaseView 按 endpoint 查找静态视图
func (a *Admin) BaseView(endpoint string) (*BaseView, bool) {
	v, ok := a.baseViews[endpoint]
	return v, ok
}

// ModelViews 按注册顺序返回模型视图
func (a *Admin) ModelViews() []*ModelView {
	return append([]*ModelView(nil), a.order...)
}

// BaseViews 按注册顺序返回静态视图
func (a *Admin) BaseViews() []*BaseView {
	out := make([]*BaseView, 0, len(a.baseViews))
	for _, m := range a.menu {
		if v, ok := a.baseViews[m.Endpoint]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Menu 导航菜单（注册顺序）
func (a *Admin) Menu() []MenuItem {
	return append([]MenuItem(nil), a.menu...)
}

// URL 拼接后台路径：URL("information", "edit") -> /admin/information/edit/
func (a *Admin) URL(endpoint string, action ...string) string {
	parts := append([]string{a.BasePath, endpoint}, action...)
	return strings.Join(parts, "/") + "/"
}

// IndexURL 后台首页
func (a *Admin) IndexURL() string { return a.BasePath + "/" }

func (a *Admin) checkEndpoint(ep string) error {
	if !endpointPattern.MatchString(ep) {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, ep)
	}
	if reservedEndpoints[ep] {
		return fmt.Errorf("%w: %q", ErrReservedEndpoint, ep)
	}
	if _, ok := a.modelViews[ep]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateEndpoint, ep)
	}
	if _, ok := a.baseViews[ep]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateEndpoint, ep)
	}
	return nil
}

func (a *Admin) applyDefaults(v *ModelView) {
	pk := v.table.PrimaryKey().DBName
	var nonPK []string
	for _, c := range v.table.Columns() {
		if c != pk {
			nonPK = append(nonPK, c)
		}
	}

	if v.ColumnList == nil {
		v.ColumnList = nonPK
	}
	if v.FormColumns == nil {
		v.FormColumns = nonPK
	}
	if v.ColumnExportList == nil {
		v.ColumnExportList = v.ColumnList
	}
	if v.ColumnDetailsList == nil {
		v.ColumnDetailsList = v.table.Columns()
	}
	if v.ExportTypes == nil {
		v.ExportTypes = []string{ExportCSV, ExportXLSX}
	}
	if v.PageSize <= 0 {
		v.PageSize = a.PageSize
	}
	if v.PageSize <= 0 {
		v.PageSize = 20
	}
	if v.ListTemplate == "" {
		v.ListTemplate = DefaultListTemplate
	}
	if v.CreateTemplate == "" {
		v.CreateTemplate = DefaultCreateTemplate
	}
	if v.EditTemplate == "" {
		v.EditTemplate = DefaultEditTemplate
	}
	if v.DetailsTemplate == "" {
		v.DetailsTemplate = DefaultDetailsTemplate
	}
}

func validateColumns(v *ModelView) error {
	pk := v.table.PrimaryKey().DBName
	groups := []struct {
		name    string
		columns []string
	}{
		{"column_list", v.ColumnList},
		{"column_searchable_list", v.ColumnSearchableList},
		{"column_filters", v.ColumnFilters},
		{"column_editable_list", v.ColumnEditableList},
		{"column_export_list", v.ColumnExportList},
		{"column_details_list", v.ColumnDetailsList},
		{"form_columns", v.FormColumns},
	}
	for _, g := range groups {
		for _, c := range g.columns {
			if _, ok := v.table.Field(c); !ok {
				return fmt.Errorf("%w: 视图 %s 的 %s 引用了 %q", ErrUnknownColumn, v.Name, g.name, c)
			}
		}
	}
	for _, c := range append(append([]string(nil), v.ColumnEditableList...), v.FormColumns...) {
		if c == pk {
			return fmt.Errorf("视图 %s: 主键列 %q 不可编辑", v.Name, c)
		}
	}
	for _, t := range v.ExportTypes {
		if t != ExportCSV && t != ExportXLSX {
			return fmt.Errorf("视图 %s: 不支持的导出格式 %q", v.Name, t)
		}
	}
	return nil
}
