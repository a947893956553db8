package handler

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"faculty-sub/backend/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportHistory 导出教师的代课申请记录
// GET /api/v1/requests/teacher/:teacherId/export
func (h *ExportHandler) ExportHistory(c *gin.Context) {
	teacherID, ok := parseIDParam(c, "teacherId")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportHistory(c.Request.Context(), teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypeXLSX)
}

// ExportCalendar 导出教师已接受的代课日历
// GET /api/v1/requests/accepted/:teacherId/calendar.ics
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	teacherID, ok := parseIDParam(c, "teacherId")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypeICS)
}

// sendFile 设置下载响应头并写入文件内容
func sendFile(c *gin.Context, buf *bytes.Buffer, filename, contentType string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
