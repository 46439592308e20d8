package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feelins/flask-admin/pkg/response"
)

// adminUserKey 与 handler.AdminUserKey 保持一致
const adminUserKey = "admin_user"

// TokenVerifier 校验会话 Token 并返回用户名
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// SessionAuth 后台会话认证中间件
// 依次从 Cookie 与 Authorization: Bearer <token> 中提取会话 Token。
// 未认证的页面请求重定向到登录页，其余请求返回 401。
func SessionAuth(verifier TokenVerifier, cookieName, loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)
		if token == "" {
			if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		if token != "" {
			if username, err := verifier.Verify(token); err == nil {
				c.Set(adminUserKey, username)
				c.Next()
				return
			}
		}

		if c.Request.Method == http.MethodGet && wantsHTML(c) {
			c.Redirect(http.StatusFound, loginURL+"?"+url.Values{"next": {c.Request.URL.RequestURI()}}.Encode())
			c.Abort()
			return
		}
		response.Unauthorized(c, response.CodeUnauthenticated, "未登录或会话已过期")
		c.Abort()
	}
}

func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}
