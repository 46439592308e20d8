package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/service"
)

var exportContentTypes = map[string]string{
	admin.ExportCSV:  "text/csv; charset=utf-8",
	admin.ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	pages     *pages
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(p *pages, exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{pages: p, exportSvc: exportSvc}
}

// Export 按列表当前的搜索、筛选与排序导出
// GET /admin/<endpoint>/export/:format/
func (h *ExportHandler) Export(v *admin.ModelView) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.Param("format")
		buf, filename, err := h.exportSvc.Export(c.Request.Context(), v, parseListRequest(c.Request.URL.Query()), format)
		if err != nil {
			h.handleExportError(c, v, err)
			return
		}

		// 设置下载响应头
		contentType := exportContentTypes[format]
		encodedFilename := url.PathEscape(filename)
		c.Header("Content-Description", "File Transfer")
		c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
		c.Data(http.StatusOK, contentType, buf.Bytes())
	}
}

func (h *ExportHandler) handleExportError(c *gin.Context, v *admin.ModelView, err error) {
	switch {
	case errors.Is(err, service.ErrExportFormat):
		h.pages.renderError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		h.pages.renderError(c, http.StatusInternalServerError, "生成导出文件失败")
	default:
		h.pages.handleRecordError(c, v, err)
	}
}
