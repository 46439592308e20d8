package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/api/handler"
	"github.com/feelins/flask-admin/internal/api/middleware"
	"github.com/feelins/flask-admin/internal/api/templates"
	"github.com/feelins/flask-admin/pkg/metrics"
)

// Deps 路由依赖；Limiter / Metrics 可为 nil
type Deps struct {
	Admin    *admin.Admin
	Handler  *handler.Handler
	Verifier middleware.TokenVerifier
	Limiter  middleware.RateLimiter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, d Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	tmpl, err := templates.Load(cfg.Admin.BaseTemplate)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	h := d.Handler
	a := d.Admin

	// ── 根路径与健康检查 ──
	r.GET("/", h.Index.Root)
	r.GET("/health", h.Index.Health)
	if cfg.Metrics.Enabled && d.Metrics != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(d.Metrics.Handler()))
	}

	// ── 后台 ──
	write := middleware.RateLimit(d.Limiter, cfg.Redis.RateLimit, cfg.Redis.RateWindow)
	base := r.Group(a.BasePath)
	protected := base.Group("")
	if cfg.Auth.Enabled {
		if d.Verifier == nil {
			return nil, fmt.Errorf("启用认证时必须提供会话校验器")
		}
		base.GET("/login/", h.Auth.LoginPage)
		base.POST("/login/", write, h.Auth.Login)
		base.POST("/logout/", h.Auth.Logout)
		protected.Use(middleware.SessionAuth(d.Verifier, cfg.Auth.Cookie.Name, a.URL("login")))
	}

	protected.GET("/", h.Admin.Index)
	for _, v := range a.ModelViews() {
		g := protected.Group("/" + v.Endpoint)
		{
			g.GET("/", h.Admin.List(v))
			g.GET("/new/", h.Admin.CreateForm(v))
			g.POST("/new/", write, h.Admin.Create(v))
			g.GET("/edit/", h.Admin.EditForm(v))
			g.POST("/edit/", write, h.Admin.Edit(v))
			g.GET("/details/", h.Admin.Details(v))
			g.POST("/delete/", write, h.Admin.Delete(v))
			g.POST("/ajax/update/", write, h.Admin.AjaxUpdate(v))
			g.GET("/export/:format/", h.Export.Export(v))
		}
	}
	for _, v := range a.BaseViews() {
		protected.GET("/"+v.Endpoint+"/", h.Admin.Static(v))
	}

	return r, nil
}
