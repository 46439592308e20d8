package handler

import (
	"github.com/gin-gonic/gin"
)

// AdminUserKey 认证中间件写入当前登录用户名的上下文键
const AdminUserKey = "admin_user"

// CurrentUser 从 Gin 上下文中提取当前登录用户名；未启用登录时返回 "anonymous"
func CurrentUser(c *gin.Context) string {
	v, exists := c.Get(AdminUserKey)
	if !exists {
		return "anonymous"
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "anonymous"
	}
	return s
}
