package dto

// ── 后台记录 DTO ──

// FilterParam 列表筛选参数，对应查询参数 flt_<column>_<op>=<value>
type FilterParam struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  string `json:"value"`
}

// ListRequest 列表查询请求
type ListRequest struct {
	Page    int           `json:"page"` // 从 1 开始
	Search  string        `json:"search"`
	Sort    string        `json:"sort"`
	Desc    bool          `json:"desc"`
	Filters []FilterParam `json:"filters"`
}

// RecordForm 表单提交值，键为列名
type RecordForm map[string]string

// SeedResult 示例数据导入结果
type SeedResult struct {
	Information int `json:"information"`
	Evaluation  int `json:"evaluation"`
	Version     int `json:"version"`
}
