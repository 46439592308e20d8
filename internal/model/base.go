package model

import "time"

// Record 后台可管理记录的公共接口
type Record interface {
	TableName() string
	// DisplayName 记录的展示名称（详情页标题等）
	DisplayName() string
}

// stampIfZero 未指定时间时以当前时间填充
func stampIfZero(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// All 返回全部模型，顺序与后台菜单一致
func All() []Record {
	return []Record{&Information{}, &Evaluation{}, &Version{}}
}
