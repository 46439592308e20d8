package dto

// ── 认证响应 ──

// TokenResponse 登录成功后签发的会话 Token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // 秒
}

// ── 后台列表响应 ──

// ColumnHeader 列表列头
type ColumnHeader struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Sortable  bool   `json:"sortable"`
	Editable  bool   `json:"editable"`
	InputType string `json:"input_type"`
}

// Cell 单元格，Text 为展示值
type Cell struct {
	Column string `json:"column"`
	Text   string `json:"text"`
}

// RowResponse 列表行
type RowResponse struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

// FilterOption 可用的筛选项
type FilterOption struct {
	Column string     `json:"column"`
	Label  string     `json:"label"`
	Ops    []OpOption `json:"ops"`
}

// OpOption 筛选操作
type OpOption struct {
	Op    string `json:"op"`
	Label string `json:"label"`
}

// ListResponse 列表分页结果
type ListResponse struct {
	Columns   []ColumnHeader `json:"columns"`
	Rows      []RowResponse  `json:"rows"`
	Filters   []FilterOption `json:"filters"`
	Active    []FilterParam  `json:"active_filters"`
	Search    string         `json:"search"`
	Sort      string         `json:"sort"`
	Desc      bool           `json:"desc"`
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	PageCount int            `json:"page_count"`
}

// ── 详情与表单 ──

// FieldValue 单个字段的展示值
type FieldValue struct {
	Column string `json:"column"`
	Label  string `json:"label"`
	Text   string `json:"text"`
}

// RecordDetailResponse 记录详情
type RecordDetailResponse struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Fields []FieldValue `json:"fields"`
}

// FormField 表单字段
type FormField struct {
	Column    string `json:"column"`
	Label     string `json:"label"`
	Value     string `json:"value"`
	InputType string `json:"input_type"` // text | textarea | datetime | number | checkbox
	MaxLength int    `json:"max_length,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FormResponse 新建 / 编辑表单
type FormResponse struct {
	ID     string      `json:"id,omitempty"`
	Fields []FormField `json:"fields"`
}
