package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/internal/repository"
	"github.com/feelins/flask-admin/internal/service"
	"github.com/feelins/flask-admin/pkg/metrics"
	"github.com/feelins/flask-admin/pkg/response"
)

const (
	listFormPK      = "list_form_pk"
	pageWindow      = 4
	formErrorNotice = "保存失败，请修正表单中的错误"
)

// AdminHandler 后台页面处理器：首页、静态页与模型视图的增删改查
//
// 模型视图的处理函数按视图生成，由路由层逐个注册。
type AdminHandler struct {
	pages     *pages
	recordSvc service.RecordService
	metrics   *metrics.Metrics
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(p *pages, recordSvc service.RecordService, m *metrics.Metrics) *AdminHandler {
	return &AdminHandler{pages: p, recordSvc: recordSvc, metrics: m}
}

// Index 后台首页
// GET /admin/
func (h *AdminHandler) Index(c *gin.Context) {
	h.pages.render(c, http.StatusOK, "admin_index.html", h.pages.data("", ""))
}

// Static 静态页面视图
// GET /admin/<endpoint>/
func (h *AdminHandler) Static(v *admin.BaseView) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.pages.render(c, http.StatusOK, v.Template, h.pages.data(v.Endpoint, v.Name))
	}
}

// ────────────────────── List ──────────────────────

type columnLink struct {
	Header  dto.ColumnHeader
	SortURL string
	Sorted  bool
	Desc    bool
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type exportLink struct {
	Format string
	URL    string
}

type activeFilter struct {
	Name    string
	Label   string
	OpLabel string
	Value   string
}

// List 列表页
// GET /admin/<endpoint>/?page=&search=&sort=&desc=&flt_<column>_<op>=
func (h *AdminHandler) List(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		list, err := h.recordSvc.List(c.Request.Context(), v, parseListRequest(query))
		if err != nil {
			h.pages.handleRecordError(c, v, err)
			return
		}

		data := h.pages.data(v.Endpoint, v.Name)
		h.fillList(data, v, list, query)
		h.pages.render(c, http.StatusOK, v.ListTemplate, data)
	}
}

func (h *AdminHandler) fillList(data gin.H, v *admin.ModelView, list *dto.ListResponse, query url.Values) {
	a := h.pages.admin
	base := a.URL(v.Endpoint)
	state := listState(query)

	columns := make([]columnLink, 0, len(list.Columns))
	hasEditable := false
	for _, col := range list.Columns {
		q := cloneValues(state)
		q.Set("sort", col.Name)
		sorted := list.Sort == col.Name
		if sorted && !list.Desc {
			q.Set("desc", "1")
		} else {
			q.Del("desc")
		}
		columns = append(columns, columnLink{Header: col, SortURL: withQuery(base, q), Sorted: sorted, Desc: sorted && list.Desc})
		hasEditable = hasEditable || col.Editable
	}

	pageURL := func(n int) string {
		q := cloneValues(state)
		if n > 1 {
			q.Set("page", strconv.Itoa(n))
		}
		return withQuery(base, q)
	}
	var pageLinks []pageLink
	first, last := list.Page-pageWindow, list.Page+pageWindow
	if first < 1 {
		first = 1
	}
	if last > list.PageCount {
		last = list.PageCount
	}
	for n := first; n <= last; n++ {
		pageLinks = append(pageLinks, pageLink{Number: n, URL: pageURL(n), Current: n == list.Page})
	}
	prevURL, nextURL := "", ""
	if list.Page > 1 {
		prevURL = pageURL(list.Page - 1)
	}
	if list.Page < list.PageCount {
		nextURL = pageURL(list.Page + 1)
	}

	var exports []exportLink
	if v.CanExport {
		for _, f := range v.ExportTypes {
			exports = append(exports, exportLink{Format: f, URL: withQuery(a.URL(v.Endpoint, "export", f), state)})
		}
	}

	active := make([]activeFilter, 0, len(list.Active))
	for _, p := range list.Active {
		active = append(active, activeFilter{
			Name:    filterKey(p),
			Label:   v.Label(p.Column),
			OpLabel: admin.OpLabel(repository.FilterOp(p.Op)),
			Value:   p.Value,
		})
	}

	noSearch := cloneValues(state)
	noSearch.Del("search")
	noFilters := cloneValues(state)
	for k := range noFilters {
		if strings.HasPrefix(k, filterPrefix) {
			noFilters.Del(k)
		}
	}

	data["View"] = v
	data["List"] = list
	data["Columns"] = columns
	data["HasEditable"] = hasEditable
	data["Pages"] = pageLinks
	data["PrevURL"] = prevURL
	data["NextURL"] = nextURL
	data["ExportLinks"] = exports
	data["ActiveFilters"] = active
	data["SearchPlaceholder"] = strings.Join(v.Labels(v.ColumnSearchableList), ", ")
	data["ListURL"] = base
	data["CreateURL"] = withQuery(a.URL(v.Endpoint, "new"), url.Values{"url": {withQuery(base, state)}})
	data["EditURL"] = a.URL(v.Endpoint, "edit")
	data["DetailsURL"] = a.URL(v.Endpoint, "details")
	data["DeleteURL"] = a.URL(v.Endpoint, "delete")
	data["AjaxURL"] = a.URL(v.Endpoint, "ajax", "update")
	data["ClearSearchURL"] = withQuery(base, noSearch)
	data["ClearFiltersURL"] = withQuery(base, noFilters)
}

// ────────────────────── Create ──────────────────────

// CreateForm 新建表单
// GET /admin/<endpoint>/new/
func (h *AdminHandler) CreateForm(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := h.recordSvc.NewForm(v)
		if err != nil {
			h.pages.handleRecordError(c, v, err)
			return
		}
		h.renderCreate(c, v, form, "")
	}
}

// Create 提交新建表单
// POST /admin/<endpoint>/new/
func (h *AdminHandler) Create(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		values := postedForm(c, v)
		id, err := h.recordSvc.Create(c.Request.Context(), v, values)
		if err != nil {
			var fe service.FieldErrors
			if errors.As(err, &fe) {
				h.renderCreate(c, v, service.BuildForm(v, "", values, fe), formErrorNotice)
				return
			}
			h.pages.handleRecordError(c, v, err)
			return
		}

		h.metrics.IncRecordChange(v.Endpoint, "create")
		h.pages.logger.Info("后台新建记录",
			zap.String("endpoint", v.Endpoint),
			zap.String("id", id),
			zap.String("user", CurrentUser(c)),
		)

		a := h.pages.admin
		switch {
		case c.PostForm("_add_another") != "":
			c.Redirect(http.StatusSeeOther, a.URL(v.Endpoint, "new"))
		case c.PostForm("_continue_editing") != "":
			c.Redirect(http.StatusSeeOther, withQuery(a.URL(v.Endpoint, "edit"), url.Values{"id": {id}}))
		default:
			c.Redirect(http.StatusSeeOther, h.pages.returnURL(c, a.URL(v.Endpoint)))
		}
	}
}

func (h *AdminHandler) renderCreate(c *gin.Context, v *admin.ModelView, form *dto.FormResponse, notice string) {
	a := h.pages.admin
	data := h.pages.data(v.Endpoint, v.Name)
	data["View"] = v
	data["Form"] = form
	data["Error"] = notice
	data["ReturnURL"] = h.pages.returnURL(c, a.URL(v.Endpoint))
	data["FormAction"] = c.Request.URL.RequestURI()
	h.pages.render(c, http.StatusOK, v.CreateTemplate, data)
}

// ────────────────────── Edit ──────────────────────

// EditForm 编辑表单
// GET /admin/<endpoint>/edit/?id=
func (h *AdminHandler) EditForm(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			c.Redirect(http.StatusFound, h.pages.admin.URL(v.Endpoint))
			return
		}
		form, err := h.recordSvc.EditForm(c.Request.Context(), v, id)
		if err != nil {
			h.pages.handleRecordError(c, v, err)
			return
		}
		h.renderEdit(c, v, form, "")
	}
}

// Edit 提交编辑表单
// POST /admin/<endpoint>/edit/?id=
func (h *AdminHandler) Edit(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			h.pages.renderError(c, http.StatusBadRequest, "缺少记录主键")
			return
		}
		values := postedForm(c, v)
		if err := h.recordSvc.Update(c.Request.Context(), v, id, values); err != nil {
			var fe service.FieldErrors
			if errors.As(err, &fe) {
				h.renderEdit(c, v, service.BuildForm(v, id, values, fe), formErrorNotice)
				return
			}
			h.pages.handleRecordError(c, v, err)
			return
		}

		h.metrics.IncRecordChange(v.Endpoint, "edit")
		h.pages.logger.Info("后台更新记录",
			zap.String("endpoint", v.Endpoint),
			zap.String("id", id),
			zap.String("user", CurrentUser(c)),
		)

		a := h.pages.admin
		if c.PostForm("_continue_editing") != "" {
			c.Redirect(http.StatusSeeOther, withQuery(a.URL(v.Endpoint, "edit"), url.Values{"id": {id}}))
			return
		}
		c.Redirect(http.StatusSeeOther, h.pages.returnURL(c, a.URL(v.Endpoint)))
	}
}

func (h *AdminHandler) renderEdit(c *gin.Context, v *admin.ModelView, form *dto.FormResponse, notice string) {
	a := h.pages.admin
	data := h.pages.data(v.Endpoint, v.Name)
	data["View"] = v
	data["Form"] = form
	data["Error"] = notice
	data["ReturnURL"] = h.pages.returnURL(c, a.URL(v.Endpoint))
	data["FormAction"] = c.Request.URL.RequestURI()
	data["DetailsURL"] = a.URL(v.Endpoint, "details")
	h.pages.render(c, http.StatusOK, v.EditTemplate, data)
}

// postedForm 收集表单列的提交值；未提交的列不出现在结果中
func postedForm(c *gin.Context, v *admin.ModelView) dto.RecordForm {
	values := make(dto.RecordForm, len(v.FormColumns))
	for _, col := range v.FormColumns {
		if val, ok := c.GetPostForm(col); ok {
			values[col] = val
		}
	}
	return values
}

// ────────────────────── Details ──────────────────────

// Details 详情页
// GET /admin/<endpoint>/details/?id=
func (h *AdminHandler) Details(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			c.Redirect(http.StatusFound, h.pages.admin.URL(v.Endpoint))
			return
		}
		detail, err := h.recordSvc.Get(c.Request.Context(), v, id)
		if err != nil {
			h.pages.handleRecordError(c, v, err)
			return
		}

		a := h.pages.admin
		data := h.pages.data(v.Endpoint, v.Name)
		data["View"] = v
		data["Detail"] = detail
		data["ReturnURL"] = h.pages.returnURL(c, a.URL(v.Endpoint))
		data["EditURL"] = a.URL(v.Endpoint, "edit")
		h.pages.render(c, http.StatusOK, v.DetailsTemplate, data)
	}
}

// ────────────────────── Delete ──────────────────────

// Delete 删除记录
// POST /admin/<endpoint>/delete/
func (h *AdminHandler) Delete(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.PostForm("id")
		if id == "" {
			h.pages.renderError(c, http.StatusBadRequest, "缺少记录主键")
			return
		}
		if err := h.recordSvc.Delete(c.Request.Context(), v, id); err != nil {
			h.pages.handleRecordError(c, v, err)
			return
		}

		h.metrics.IncRecordChange(v.Endpoint, "delete")
		h.pages.logger.Info("后台删除记录",
			zap.String("endpoint", v.Endpoint),
			zap.String("id", id),
			zap.String("user", CurrentUser(c)),
		)
		c.Redirect(http.StatusSeeOther, h.pages.returnURL(c, h.pages.admin.URL(v.Endpoint)))
	}
}

// ────────────────────── Inline edit ──────────────────────

// AjaxUpdate 列表行内编辑，请求体为 list_form_pk=<id>&<column>=<value>
// POST /admin/<endpoint>/ajax/update/
func (h *AdminHandler) AjaxUpdate(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.PostForm(listFormPK)
		if id == "" {
			response.BadRequest(c, response.CodeInvalidParams, "缺少记录主键")
			return
		}

		column := ""
		for k := range c.Request.PostForm {
			if k == listFormPK {
				continue
			}
			if column != "" {
				response.BadRequest(c, response.CodeInvalidParams, "每次只能编辑一列")
				return
			}
			column = k
		}
		if column == "" {
			response.BadRequest(c, response.CodeInvalidParams, "缺少待编辑的列")
			return
		}

		field, err := h.recordSvc.UpdateField(c.Request.Context(), v, id, column, c.Request.PostForm.Get(column))
		if err != nil {
			h.handleAjaxError(c, v, err)
			return
		}

		h.metrics.IncRecordChange(v.Endpoint, "ajax_update")
		h.pages.logger.Info("后台行内编辑",
			zap.String("endpoint", v.Endpoint),
			zap.String("id", id),
			zap.String("column", column),
			zap.String("user", CurrentUser(c)),
		)
		response.OK(c, field)
	}
}

func (h *AdminHandler) handleAjaxError(c *gin.Context, v *admin.ModelView, err error) {
	var fe service.FieldErrors
	switch {
	case errors.As(err, &fe):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "表单校验失败", fe)
	case errors.Is(err, service.ErrRecordNotFound):
		response.NotFound(c, response.CodeNotFound, "记录不存在")
	case errors.Is(err, service.ErrOperationDisabled):
		response.Forbidden(c, response.CodeNotAllowed, "该视图未开放编辑")
	case errors.Is(err, service.ErrColumnNotEditable):
		response.BadRequest(c, response.CodeInvalidParams, err.Error())
	default:
		h.pages.logger.Error("行内编辑失败", zap.String("endpoint", v.Endpoint), zap.Error(err))
		response.InternalError(c)
	}
}

// handleRecordError 将业务错误映射为错误页
func (p *pages) handleRecordError(c *gin.Context, v *admin.ModelView, err error) {
	switch {
	case errors.Is(err, service.ErrRecordNotFound):
		p.renderError(c, http.StatusNotFound, "记录不存在")
	case errors.Is(err, service.ErrOperationDisabled):
		p.renderError(c, http.StatusForbidden, "该视图未开放此操作")
	case errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrInvalidSort),
		errors.Is(err, service.ErrColumnNotEditable),
		errors.Is(err, service.ErrExportFormat):
		p.renderError(c, http.StatusBadRequest, err.Error())
	default:
		p.logger.Error("后台请求处理失败", zap.String("endpoint", v.Endpoint), zap.Error(err))
		p.renderError(c, http.StatusInternalServerError, "服务器内部错误")
	}
}
