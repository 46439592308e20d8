package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/service"
	"github.com/feelins/flask-admin/pkg/metrics"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Index  *IndexHandler
	Admin  *AdminHandler
	Export *ExportHandler
	Auth   *AuthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(
	cfg *config.Config,
	a *admin.Admin,
	svc *service.Service,
	m *metrics.Metrics,
	db Pinger,
	logger *zap.Logger,
) *Handler {
	p := newPages(a, cfg.Auth.Enabled, logger)
	return &Handler{
		Index:  NewIndexHandler(a, db),
		Admin:  NewAdminHandler(p, svc.Record, m),
		Export: NewExportHandler(p, svc.Export),
		Auth:   NewAuthHandler(p, svc.Auth, cfg.Auth.Cookie),
	}
}

// pages 页面渲染公共部分：导航、标题与错误页
type pages struct {
	admin       *admin.Admin
	authEnabled bool
	logger      *zap.Logger
}

func newPages(a *admin.Admin, authEnabled bool, logger *zap.Logger) *pages {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pages{admin: a, authEnabled: authEnabled, logger: logger}
}

// data 返回布局模板所需的公共数据，active 为当前高亮的菜单 endpoint
func (p *pages) data(active, pageTitle string) gin.H {
	return gin.H{
		"Title":       p.admin.Title,
		"PageTitle":   pageTitle,
		"IndexURL":    p.admin.IndexURL(),
		"Menu":        p.admin.Menu(),
		"Active":      active,
		"AuthEnabled": p.authEnabled,
		"LogoutURL":   p.admin.URL("logout"),
		"Error":       "",
		"Flash":       "",
	}
}

func (p *pages) render(c *gin.Context, status int, name string, data gin.H) {
	c.HTML(status, name, data)
}

func (p *pages) renderError(c *gin.Context, status int, message string) {
	data := p.data("", http.StatusText(status))
	data["Status"] = status
	data["Message"] = message
	p.render(c, status, "error.html", data)
}

// returnURL 取查询参数 url 作为返回地址，仅接受后台内部路径
func (p *pages) returnURL(c *gin.Context, fallback string) string {
	u := c.Query("url")
	if u == "" {
		u = c.PostForm("url")
	}
	if isLocalPath(u, p.admin.BasePath) {
		return u
	}
	return fallback
}

func isLocalPath(u, base string) bool {
	if u == "" || len(u) < len(base)+1 {
		return false
	}
	if u[0] != '/' || (len(u) > 1 && (u[1] == '/' || u[1] == '\\')) {
		return false
	}
	return u[:len(base)+1] == base+"/"
}
