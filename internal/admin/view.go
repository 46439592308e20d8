package admin

import (
	"strings"

	"github.com/feelins/flask-admin/internal/model"
	"github.com/feelins/flask-admin/internal/repository"
)

// 默认模板名
const (
	DefaultListTemplate    = "list.html"
	DefaultCreateTemplate  = "create.html"
	DefaultEditTemplate    = "edit.html"
	DefaultDetailsTemplate = "details.html"
)

// 支持的导出格式
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

// Permissions 视图开放的操作
type Permissions struct {
	CanCreate      bool
	CanEdit        bool
	CanDelete      bool
	CanExport      bool
	CanViewDetails bool
}

// DefaultPermissions 可新建、编辑、删除，导出与详情默认关闭
func DefaultPermissions() Permissions {
	return Permissions{CanCreate: true, CanEdit: true, CanDelete: true}
}

// ModelView 单个模型的后台视图配置
//
// 列配置为空时在 AddView 中按表结构补齐：
//   - ColumnList / FormColumns: 除主键外的全部列
//   - ColumnExportList: 同 ColumnList
//   - ColumnDetailsList: 全部列
type ModelView struct {
	Name     string
	Endpoint string
	Model    model.Record
	Permissions

	ColumnList           []string
	ColumnSearchableList []string
	ColumnFilters        []string
	ColumnEditableList   []string
	ColumnExportList     []string
	ColumnDetailsList    []string
	FormColumns          []string
	ColumnLabels         map[string]string

	ExportTypes []string
	PageSize    int

	ListTemplate    string
	CreateTemplate  string
	EditTemplate    string
	DetailsTemplate string

	table *repository.Table
}

// Table 绑定后的表描述
func (v *ModelView) Table() *repository.Table { return v.table }

// Label 列的显示名称
func (v *ModelView) Label(column string) string {
	if l, ok := v.ColumnLabels[column]; ok && l != "" {
		return l
	}
	return Prettify(column)
}

// Labels 批量获取显示名称
func (v *ModelView) Labels(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = v.Label(c)
	}
	return out
}

func (v *ModelView) IsSearchable() bool { return len(v.ColumnSearchableList) > 0 }

func (v *ModelView) IsEditable(column string) bool { return contains(v.ColumnEditableList, column) }

func (v *ModelView) IsFilterable(column string) bool { return contains(v.ColumnFilters, column) }

// IsSortable 仅列表中展示的列可排序
func (v *ModelView) IsSortable(column string) bool { return contains(v.ColumnList, column) }

// CanExportAs 是否允许按指定格式导出
func (v *ModelView) CanExportAs(format string) bool {
	return v.CanExport && contains(v.ExportTypes, format)
}

// FilterOps 列可用的筛选操作，不可筛选时返回 nil
func (v *ModelView) FilterOps(column string) []repository.FilterOp {
	if !v.IsFilterable(column) || v.table == nil {
		return nil
	}
	return OpsForKind(v.table.Kind(column))
}

// OpsForKind 按字段类型给出筛选操作
func OpsForKind(kind repository.FieldKind) []repository.FilterOp {
	switch kind {
	case repository.KindTime, repository.KindNumber:
		return []repository.FilterOp{
			repository.OpEqual, repository.OpNotEqual,
			repository.OpGreater, repository.OpSmaller,
			repository.OpBetween, repository.OpEmpty,
		}
	case repository.KindBool:
		return []repository.FilterOp{repository.OpEqual, repository.OpNotEqual}
	default:
		return []repository.FilterOp{
			repository.OpEqual, repository.OpNotEqual,
			repository.OpLike, repository.OpNotLike,
			repository.OpEmpty,
		}
	}
}

var opLabels = map[repository.FilterOp]string{
	repository.OpEqual:    "等于",
	repository.OpNotEqual: "不等于",
	repository.OpLike:     "包含",
	repository.OpNotLike:  "不包含",
	repository.OpGreater:  "大于",
	repository.OpSmaller:  "小于",
	repository.OpBetween:  "介于",
	repository.OpEmpty:    "为空",
}

// OpLabel 筛选操作的界面文字
func OpLabel(op repository.FilterOp) string {
	if l, ok := opLabels[op]; ok {
		return l
	}
	return string(op)
}

// Prettify update_date -> Update Date
func Prettify(column string) string {
	words := strings.Fields(strings.ReplaceAll(column, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// BaseView 静态页面视图
type BaseView struct {
	Name     string
	Endpoint string
	Template string
}
