package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"schoolhub/timetable/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 课表导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportXLSX 导出班级分组周课表 Excel
// GET /api/v1/sections/:id/timetable.xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	id, ok := pathID(c, msgSectionNotFound)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportSectionXLSX(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// ExportICS 导出班级分组周课表 iCalendar
// GET /api/v1/sections/:id/timetable.ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	id, ok := pathID(c, msgSectionNotFound)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportSectionICS(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeICS, data)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
}
