package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/internal/model"
	"github.com/feelins/flask-admin/internal/repository"
)

func setupTestRecordService(t *testing.T) (RecordService, *admin.Admin) {
	t.Helper()
	db := setupTestDB(t)
	a := setupTestAdmin(t, db)
	return NewRecordService(repository.NewRepository(db), zap.NewNop()), a
}

// ── Create / Get 测试 ──

func TestRecordService_CreateAndGet(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "information")
	ctx := context.Background()

	id, err := svc.Create(ctx, v, dto.RecordForm{
		"lang":           " zh ",
		"gender":         "F",
		"name":           "xiaoyan",
		"duration":       "10h",
		"engine_name_id": "x-001",
		"update_date":    "2022-10-10",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if id == "" {
		t.Fatal("应返回新记录主键")
	}

	detail, err := svc.Get(ctx, v, id)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if detail.Title != "xiaoyan" {
		t.Errorf("期望标题 xiaoyan，实际 %s", detail.Title)
	}
	got := map[string]string{}
	for _, f := range detail.Fields {
		got[f.Column] = f.Text
	}
	if got["lang"] != "zh" {
		t.Errorf("字符串应去除首尾空白，实际 %q", got["lang"])
	}
	if got["update_date"] != "2022-10-10 00:00:00" {
		t.Errorf("期望更新日期 2022-10-10 00:00:00，实际 %q", got["update_date"])
	}
	if got["id"] != id {
		t.Errorf("详情应包含主键列，实际 %q", got["id"])
	}
	if detail.Fields[1].Label != "语言" {
		t.Errorf("期望使用中文标签，实际 %s", detail.Fields[1].Label)
	}
}

func TestRecordService_Create_DefaultsUpdateDate(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "version")
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	id, err := svc.Create(ctx, v, dto.RecordForm{"other_comment": "初版", "update_time": ""})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	detail, err := svc.Get(ctx, v, id)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range detail.Fields {
		if f.Column != "update_time" {
			continue
		}
		ts, err := time.ParseInLocation(DisplayTimeLayout, f.Text, time.Local)
		if err != nil {
			t.Fatalf("更新时间格式异常: %q", f.Text)
		}
		if ts.Before(before.Truncate(time.Second)) {
			t.Errorf("空时间应默认为当前时间，实际 %s", f.Text)
		}
	}
}

func TestRecordService_Create_FieldErrors(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "information")

	_, err := svc.Create(context.Background(), v, dto.RecordForm{
		"name":        strings.Repeat("名", 65),
		"gender":      "F",
		"update_date": "10/10/2022",
	})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("期望 FieldErrors，实际: %v", err)
	}
	if _, ok := fe["name"]; !ok {
		t.Error("超长姓名应报错")
	}
	if _, ok := fe["update_date"]; !ok {
		t.Error("无效日期应报错")
	}
	if _, ok := fe["gender"]; ok {
		t.Error("合法字段不应报错")
	}
}

func TestRecordService_Create_DuplicateCode(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "information")
	ctx := context.Background()

	if _, err := svc.Create(ctx, v, dto.RecordForm{"name": "a", "engine_name_id": "dup"}); err != nil {
		t.Fatalf("首次创建应成功: %v", err)
	}
	_, err := svc.Create(ctx, v, dto.RecordForm{"name": "b", "engine_name_id": "dup"})
	var fe FieldErrors
	if !errors.As(err, &fe) || fe["engine_name_id"] != duplicateValueMsg {
		t.Fatalf("期望代号重复错误，实际: %v", err)
	}

	// 空代号存 NULL，不触发唯一约束
	for i := 0; i < 2; i++ {
		if _, err := svc.Create(ctx, v, dto.RecordForm{"name": "c", "engine_name_id": ""}); err != nil {
			t.Fatalf("空代号不应冲突: %v", err)
		}
	}
}

func TestRecordService_Get_Errors(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "version")

	if _, err := svc.Get(context.Background(), v, "42"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}
	if _, err := svc.Get(context.Background(), v, "abc"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("非法主键应视为不存在，实际: %v", err)
	}

	hidden := *v
	hidden.CanViewDetails = false
	if _, err := svc.Get(context.Background(), &hidden, "1"); !errors.Is(err, ErrOperationDisabled) {
		t.Errorf("期望 ErrOperationDisabled，实际: %v", err)
	}
}

// ── List 测试 ──

func seedInfoRows(t *testing.T, svc RecordService, v *admin.ModelView, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		lang := "zh"
		if i%5 == 0 {
			lang = "en"
		}
		_, err := svc.Create(context.Background(), v, dto.RecordForm{
			"lang":           lang,
			"name":           fmt.Sprintf("speaker-%02d", i),
			"engine_name_id": fmt.Sprintf("code-%02d", i),
		})
		if err != nil {
			t.Fatalf("准备数据失败: %v", err)
		}
	}
}

func TestRecordService_List_Paging(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "information")
	seedInfoRows(t, svc, v, 25)

	resp, err := svc.List(context.Background(), v, &dto.ListRequest{Page: 2})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if resp.Total != 25 || resp.PageCount != 2 || len(resp.Rows) != 5 {
		t.Errorf("期望共 25 条 2 页、第 2 页 5 条，实际 total=%d pages=%d rows=%d", resp.Total, resp.PageCount, len(resp.Rows))
	}
	if len(resp.Columns) != 6 || resp.Columns[0].Label != "语言" {
		t.Errorf("列头应与列表配置一致: %+v", resp.Columns)
	}
	if !resp.Columns[0].Editable {
		t.Error("语言列应可行内编辑")
	}
	if len(resp.Filters) != 3 {
		t.Errorf("期望 3 个筛选项，实际 %d", len(resp.Filters))
	}
	if len(resp.Rows[0].Cells) != 6 {
		t.Errorf("每行应有 6 个单元格，实际 %d", len(resp.Rows[0].Cells))
	}

	first, err := svc.List(context.Background(), v, &dto.ListRequest{Page: 0})
	if err != nil {
		t.Fatal(err)
	}
	if first.Page != 1 || len(first.Rows) != 20 {
		t.Errorf("页码小于 1 时应取第 1 页，实际 page=%d rows=%d", first.Page, len(first.Rows))
	}
}

func TestRecordService_List_SearchFilterSort(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "information")
	seedInfoRows(t, svc, v, 10)
	ctx := context.Background()

	resp, err := svc.List(ctx, v, &dto.ListRequest{Search: "SPEAKER-0 en"})
	if err != nil {
		t.Fatalf("搜索应成功: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("期望 2 条（speaker-00, speaker-05），实际 %d", resp.Total)
	}

	resp, err = svc.List(ctx, v, &dto.ListRequest{
		Filters: []dto.FilterParam{{Column: "lang", Op: "ne", Value: "en"}},
		Sort:    "name",
		Desc:    true,
	})
	if err != nil {
		t.Fatalf("筛选应成功: %v", err)
	}
	if resp.Total != 8 {
		t.Errorf("期望 8 条非 en 记录，实际 %d", resp.Total)
	}
	if resp.Rows[0].Cells[2].Text != "speaker-09" {
		t.Errorf("按姓名倒序首条应为 speaker-09，实际 %s", resp.Rows[0].Cells[2].Text)
	}

	if _, err := svc.List(ctx, v, &dto.ListRequest{Filters: []dto.FilterParam{{Column: "gender", Op: "eq", Value: "F"}}}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("不可筛选的列应返回 ErrInvalidFilter，实际: %v", err)
	}
	if _, err := svc.List(ctx, v, &dto.ListRequest{Filters: []dto.FilterParam{{Column: "lang", Op: "between", Value: "a to b"}}}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("文本列不支持 between，实际: %v", err)
	}
	if _, err := svc.List(ctx, v, &dto.ListRequest{Sort: "id"}); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("未在列表中的列不可排序，实际: %v", err)
	}
}

func TestRecordService_List_TimeFilter(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "evaluation")
	ctx := context.Background()

	for _, d := range []string{"2022-10-09 08:00:00", "2022-10-10 09:30:00", "2022-10-10 23:00:00", "2022-10-11 00:00:00"} {
		if _, err := svc.Create(ctx, v, dto.RecordForm{"lang": "zh", "update_date": d}); err != nil {
			t.Fatal(err)
		}
	}

	cases := []struct {
		op, value string
		want      int64
	}{
		{"eq", "2022-10-10", 2},
		{"ne", "2022-10-10", 2},
		{"gt", "2022-10-10", 1},
		{"lt", "2022-10-10", 1},
		{"between", "2022-10-09 to 2022-10-10", 3},
		{"empty", "0", 4},
	}
	for _, tc := range cases {
		resp, err := svc.List(ctx, v, &dto.ListRequest{Filters: []dto.FilterParam{{Column: "update_date", Op: tc.op, Value: tc.value}}})
		if err != nil {
			t.Fatalf("%s %s: %v", tc.op, tc.value, err)
		}
		if resp.Total != tc.want {
			t.Errorf("%s %s: 期望 %d 条，实际 %d", tc.op, tc.value, tc.want, resp.Total)
		}
	}
}

func TestRecordService_List_RepoError(t *testing.T) {
	db := setupTestDB(t)
	a := setupTestAdmin(t, db)
	dbErr := errors.New("connection refused")
	svc := NewRecordService(&repository.Repository{Record: &mockRecordRepo{listErr: dbErr}}, zap.NewNop())

	if _, err := svc.List(context.Background(), mustView(t, a, "version"), nil); !errors.Is(err, dbErr) {
		t.Errorf("期望透传数据库错误，实际: %v", err)
	}
}

// ── Edit / Update 测试 ──

func TestRecordService_EditFormAndUpdate(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "evaluation")
	ctx := context.Background()

	id, err := svc.Create(ctx, v, dto.RecordForm{"lang": "zh", "mos_sentence_num": "20"})
	if err != nil {
		t.Fatal(err)
	}

	form, err := svc.EditForm(ctx, v, id)
	if err != nil {
		t.Fatalf("EditForm 应成功: %v", err)
	}
	values := map[string]dto.FormField{}
	for _, f := range form.Fields {
		values[f.Column] = f
	}
	if values["lang"].Value != "zh" || values["mos_sentence_num"].Value != "20" {
		t.Errorf("表单应回填当前值: %+v", values)
	}
	if values["mos_date"].Value != "" || values["mos_date"].InputType != "datetime" {
		t.Errorf("空日期应为空字符串且为时间控件: %+v", values["mos_date"])
	}
	if values["lang"].MaxLength != 64 {
		t.Errorf("期望 lang 最大长度 64，实际 %d", values["lang"].MaxLength)
	}

	if err := svc.Update(ctx, v, id, dto.RecordForm{"lang": "en", "mos_date": "2022-10-10"}); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	detail, _ := svc.Get(ctx, v, id)
	got := map[string]string{}
	for _, f := range detail.Fields {
		got[f.Column] = f.Text
	}
	if got["lang"] != "en" || got["mos_date"] != "2022-10-10 00:00:00" {
		t.Errorf("更新后的值不符: %+v", got)
	}
	if got["mos_sentence_num"] != "20" {
		t.Errorf("未提交的列应保持原值，实际 %q", got["mos_sentence_num"])
	}

	if err := svc.Update(ctx, v, "999", dto.RecordForm{}); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}
}

func TestRecordService_UpdateField(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "evaluation")
	ctx := context.Background()

	id, _ := svc.Create(ctx, v, dto.RecordForm{"lang": "zh"})

	fv, err := svc.UpdateField(ctx, v, id, "mos_type", " 自然度 ")
	if err != nil {
		t.Fatalf("UpdateField 应成功: %v", err)
	}
	if fv.Text != "自然度" || fv.Label != "分类" {
		t.Errorf("返回值不符: %+v", fv)
	}

	if _, err := svc.UpdateField(ctx, v, id, "mos_date", "2022-10-10"); !errors.Is(err, ErrColumnNotEditable) {
		t.Errorf("期望 ErrColumnNotEditable，实际: %v", err)
	}
	if _, err := svc.UpdateField(ctx, v, "999", "lang", "en"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}
	var fe FieldErrors
	if _, err := svc.UpdateField(ctx, v, id, "update_date", "yesterday"); !errors.As(err, &fe) {
		t.Errorf("期望 FieldErrors，实际: %v", err)
	}
}

func TestRecordService_UpdateField_Duplicate(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "information")
	ctx := context.Background()

	_, _ = svc.Create(ctx, v, dto.RecordForm{"name": "a", "engine_name_id": "x-1"})
	id, _ := svc.Create(ctx, v, dto.RecordForm{"name": "b", "engine_name_id": "x-2"})

	_, err := svc.UpdateField(ctx, v, id, "engine_name_id", "x-1")
	var fe FieldErrors
	if !errors.As(err, &fe) || fe["engine_name_id"] != duplicateValueMsg {
		t.Errorf("期望代号重复错误，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestRecordService_Delete(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := mustView(t, a, "version")
	ctx := context.Background()

	id, _ := svc.Create(ctx, v, dto.RecordForm{"other_comment": "x"})
	if err := svc.Delete(ctx, v, id); !errors.Is(err, ErrOperationDisabled) {
		t.Fatalf("视图禁止删除，期望 ErrOperationDisabled，实际: %v", err)
	}

	deletable := *v
	deletable.CanDelete = true
	if err := svc.Delete(ctx, &deletable, id); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if err := svc.Delete(ctx, &deletable, id); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("重复删除期望 ErrRecordNotFound，实际: %v", err)
	}
}

func TestRecordService_Disabled(t *testing.T) {
	svc, a := setupTestRecordService(t)
	v := *mustView(t, a, "version")
	v.Permissions = admin.Permissions{}
	ctx := context.Background()

	if _, err := svc.NewForm(&v); !errors.Is(err, ErrOperationDisabled) {
		t.Errorf("NewForm 期望 ErrOperationDisabled，实际: %v", err)
	}
	if _, err := svc.Create(ctx, &v, dto.RecordForm{}); !errors.Is(err, ErrOperationDisabled) {
		t.Errorf("Create 期望 ErrOperationDisabled，实际: %v", err)
	}
	if _, err := svc.EditForm(ctx, &v, "1"); !errors.Is(err, ErrOperationDisabled) {
		t.Errorf("EditForm 期望 ErrOperationDisabled，实际: %v", err)
	}
	if _, err := svc.UpdateField(ctx, &v, "1", "other_comment", "x"); !errors.Is(err, ErrOperationDisabled) {
		t.Errorf("UpdateField 期望 ErrOperationDisabled，实际: %v", err)
	}
}

func TestBuildForm(t *testing.T) {
	db := setupTestDB(t)
	a := setupTestAdmin(t, db)
	v := mustView(t, a, "version")

	form := BuildForm(v, "3", dto.RecordForm{"other_comment": "hi"}, FieldErrors{"update_time": "bad"})
	if form.ID != "3" || len(form.Fields) != 2 {
		t.Fatalf("表单结构不符: %+v", form)
	}
	if form.Fields[0].InputType != "textarea" || form.Fields[0].Value != "hi" || form.Fields[0].Label != "备注" {
		t.Errorf("备注字段不符: %+v", form.Fields[0])
	}
	if form.Fields[1].Error != "bad" {
		t.Errorf("应回显字段错误: %+v", form.Fields[1])
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName(&model.Version{ID: 7}); got != "#7" {
		t.Errorf("期望 #7，实际 %s", got)
	}
	if got := displayName(struct{}{}); got != "" {
		t.Errorf("非模型记录应返回空串，实际 %s", got)
	}
}
