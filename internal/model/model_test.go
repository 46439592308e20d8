package model

import (
	"testing"
	"time"
)

func TestBeforeCreate_StampsZeroTime(t *testing.T) {
	info := &Information{}
	if err := info.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if info.UpdateDate.IsZero() {
		t.Error("未指定更新日期时应填充当前时间")
	}

	fixed := time.Date(2022, 10, 10, 0, 0, 0, 0, time.Local)
	eval := &Evaluation{UpdateDate: fixed}
	_ = eval.BeforeCreate(nil)
	if !eval.UpdateDate.Equal(fixed) {
		t.Errorf("已指定的时间不应被覆盖, 实际 %v", eval.UpdateDate)
	}

	v := &Version{}
	_ = v.BeforeCreate(nil)
	if v.UpdateTime.IsZero() {
		t.Error("Version 应填充更新时间")
	}
}

func TestDisplayName(t *testing.T) {
	if got := (&Information{Name: "xiaoyan"}).DisplayName(); got != "xiaoyan" {
		t.Errorf("期望 xiaoyan, 实际 %s", got)
	}
	if got := (&Version{ID: 3}).DisplayName(); got != "#3" {
		t.Errorf("期望 #3, 实际 %s", got)
	}
}

func TestTableNames(t *testing.T) {
	want := []string{"information", "evaluation", "version"}
	for i, m := range All() {
		if m.TableName() != want[i] {
			t.Errorf("第 %d 个模型表名期望 %s, 实际 %s", i, want[i], m.TableName())
		}
	}
}
