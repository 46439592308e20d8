package handler

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/pkg/response"
)

// Pinger 数据库连通性检查，*sql.DB 满足该接口
type Pinger interface {
	PingContext(ctx context.Context) error
}

// IndexHandler 站点根路径与健康检查
type IndexHandler struct {
	admin *admin.Admin
	db    Pinger
}

// NewIndexHandler 创建 IndexHandler
func NewIndexHandler(a *admin.Admin, db Pinger) *IndexHandler {
	return &IndexHandler{admin: a, db: db}
}

// Root 返回指向后台首页的链接
// GET /
func (h *IndexHandler) Root(c *gin.Context) {
	link := `<a href="` + template.HTMLEscapeString(h.admin.IndexURL()) + `">Click me to get to Admin!</a>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(link))
}

// Health 健康检查
// GET /health
func (h *IndexHandler) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			response.Error(c, http.StatusServiceUnavailable, response.CodeInternal, "数据库不可用")
			return
		}
	}
	response.OK(c, gin.H{"status": "ok"})
}
