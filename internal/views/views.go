// Package views 声明本应用的后台视图：发音人信息、评测记录、版本备注以及统计页
package views

import (
	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/model"
)

// 自定义列表 / 新建 / 编辑模板
const (
	listTemplate   = "list.html"
	createTemplate = "create.html"
	editTemplate   = "edit.html"
)

// AnalyticsTemplate 统计页模板
const AnalyticsTemplate = "analytics_index.html"

// 导出开启、删除关闭、可查看详情
var noDelete = admin.Permissions{
	CanCreate:      true,
	CanEdit:        true,
	CanDelete:      false,
	CanExport:      true,
	CanViewDetails: true,
}

// InformationAdmin 发音人信息
func InformationAdmin() *admin.ModelView {
	columns := []string{"lang", "gender", "name", "duration", "engine_name_id", "update_date"}
	return &admin.ModelView{
		Name:                 "Information",
		Endpoint:             "information",
		Model:                &model.Information{},
		Permissions:          noDelete,
		ColumnList:           columns,
		ColumnSearchableList: []string{"name", "engine_name_id", "lang"},
		ColumnFilters:        []string{"name", "engine_name_id", "lang"},
		ColumnEditableList:   columns,
		ColumnExportList:     columns,
		ColumnLabels: map[string]string{
			"lang":           "语言",
			"gender":         "性别",
			"name":           "姓名",
			"duration":       "时长",
			"engine_name_id": "代号",
		},
		ListTemplate:   listTemplate,
		CreateTemplate: createTemplate,
		EditTemplate:   editTemplate,
	}
}

// EvaluationAdmin 评测记录
func EvaluationAdmin() *admin.ModelView {
	columns := []string{"lang", "mos_type", "update_date"}
	return &admin.ModelView{
		Name:                 "Evaluation",
		Endpoint:             "evaluation",
		Model:                &model.Evaluation{},
		Permissions:          noDelete,
		ColumnList:           columns,
		ColumnSearchableList: columns,
		ColumnFilters:        columns,
		ColumnEditableList:   columns,
		ColumnLabels: map[string]string{
			"lang":        "语言",
			"mos_type":    "分类",
			"update_date": "更新日期",
		},
		ListTemplate:   listTemplate,
		CreateTemplate: createTemplate,
		EditTemplate:   editTemplate,
	}
}

// VersionAdmin 版本备注，列表使用默认列
func VersionAdmin() *admin.ModelView {
	columns := []string{"other_comment", "update_time"}
	return &admin.ModelView{
		Name:                 "Version",
		Endpoint:             "version",
		Model:                &model.Version{},
		Permissions:          noDelete,
		ColumnSearchableList: columns,
		ColumnFilters:        columns,
		ColumnEditableList:   columns,
		ColumnLabels: map[string]string{
			"update_time":   "更新日期",
			"other_comment": "备注",
		},
		ListTemplate:   listTemplate,
		CreateTemplate: createTemplate,
		EditTemplate:   editTemplate,
	}
}

// AnalyticsView 统计占位页
func AnalyticsView() *admin.BaseView {
	return &admin.BaseView{
		Name:     "Analytics",
		Endpoint: "analytics",
		Template: AnalyticsTemplate,
	}
}

// Register 按菜单顺序注册全部视图
func Register(a *admin.Admin) error {
	for _, v := range []*admin.ModelView{InformationAdmin(), EvaluationAdmin(), VersionAdmin()} {
		if err := a.AddView(v); err != nil {
			return err
		}
	}
	return a.AddBaseView(AnalyticsView())
}
