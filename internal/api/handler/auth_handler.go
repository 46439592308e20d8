package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/internal/service"
)

// AuthHandler 后台登录 HTTP 处理器（仅 auth.enabled 时注册）
type AuthHandler struct {
	pages   *pages
	authSvc service.AuthService
	cookie  config.CookieConfig
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(p *pages, authSvc service.AuthService, cookie config.CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "admin_token"
	}
	return &AuthHandler{pages: p, authSvc: authSvc, cookie: cookie}
}

// LoginPage 登录页
// GET /admin/login/?next=
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.renderLogin(c, http.StatusOK, "", c.Query("next"), "")
}

// Login 提交登录表单，成功后写入会话 Cookie 并跳转
// POST /admin/login/
func (h *AuthHandler) Login(c *gin.Context) {
	next := c.PostForm("next")

	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderLogin(c, http.StatusBadRequest, req.Username, next, "请输入用户名和密码")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.renderLogin(c, http.StatusUnauthorized, req.Username, next, "用户名或密码错误")
			return
		}
		h.pages.logger.Error("后台登录失败", zap.Error(err))
		h.pages.renderError(c, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	h.setSessionCookie(c, result.AccessToken, result.ExpiresIn)
	if !isLocalPath(next, h.pages.admin.BasePath) || strings.HasPrefix(next, h.pages.admin.URL("login")) {
		next = h.pages.admin.IndexURL()
	}
	c.Redirect(http.StatusSeeOther, next)
}

// Logout 清除会话 Cookie
// POST /admin/logout/
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, h.pages.admin.URL("login"))
}

func (h *AuthHandler) renderLogin(c *gin.Context, status int, username, next, errMsg string) {
	data := h.pages.data("", "登录")
	data["AuthEnabled"] = false
	data["LoginURL"] = h.pages.admin.URL("login")
	data["Next"] = next
	data["Username"] = username
	data["Error"] = errMsg
	h.pages.render(c, status, "login.html", data)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, token, maxAge, h.pages.admin.BasePath, "", h.cookie.Secure, true)
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
