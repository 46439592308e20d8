package dto

// ── 后台登录 DTO ──

// LoginRequest 登录请求（表单或 JSON）
type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}
