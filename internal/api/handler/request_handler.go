package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"faculty-sub/backend/internal/dto"
	"faculty-sub/backend/internal/service"
	"faculty-sub/backend/pkg/response"
)

// RequestHandler 代课申请模块 HTTP 处理器
type RequestHandler struct {
	requestSvc service.RequestService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// ListPending 待接受的代课申请（按日期、时间升序）
// GET /api/v1/requests
func (h *RequestHandler) ListPending(c *gin.Context) {
	list, err := h.requestSvc.ListPending(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, list)
}

// ListByTeacher 教师发布的全部申请（最新在前）
// GET /api/v1/requests/teacher/:teacherId
func (h *RequestHandler) ListByTeacher(c *gin.Context) {
	teacherID, ok := parseIDParam(c, "teacherId")
	if !ok {
		return
	}

	list, err := h.requestSvc.ListByTeacher(c.Request.Context(), teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, list)
}

// ListAcceptedBy 教师已接受的代课
// GET /api/v1/requests/accepted/:teacherId
func (h *RequestHandler) ListAcceptedBy(c *gin.Context) {
	teacherID, ok := parseIDParam(c, "teacherId")
	if !ok {
		return
	}

	list, err := h.requestSvc.ListAcceptedBy(c.Request.Context(), teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, list)
}

// Get 单个代课申请
// GET /api/v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	req, err := h.requestSvc.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, req)
}

// Create 发布代课申请
// POST /api/v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	teacherID, ok := resolveTeacherID(c, req.TeacherID)
	if !ok {
		return
	}

	created, err := h.requestSvc.Create(c.Request.Context(), teacherID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Created(c, created)
}

// Accept 接受代课申请
// PUT /api/v1/requests/:id/accept
func (h *RequestHandler) Accept(c *gin.Context) {
	id, teacherID, ok := h.bindAction(c)
	if !ok {
		return
	}

	accepted, err := h.requestSvc.Accept(c.Request.Context(), id, teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, accepted)
}

// Cancel 发布人取消代课申请
// PUT /api/v1/requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	id, teacherID, ok := h.bindAction(c)
	if !ok {
		return
	}

	cancelled, err := h.requestSvc.Cancel(c.Request.Context(), id, teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, cancelled)
}

// Delete 发布人删除代课申请
// DELETE /api/v1/requests/:id?teacher_id=
func (h *RequestHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var q dto.DeleteRequestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, err)
		return
	}
	teacherID, ok := resolveTeacherID(c, q.TeacherID)
	if !ok {
		return
	}

	if err := h.requestSvc.Delete(c.Request.Context(), id, teacherID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "代课申请已删除"})
}

// bindAction 解析路径 ID 与可选的 {"teacher_id": n} 请求体
func (h *RequestHandler) bindAction(c *gin.Context) (uint, uint, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return 0, 0, false
	}
	var body dto.TeacherActionRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		response.ValidationError(c, err)
		return 0, 0, false
	}
	teacherID, ok := resolveTeacherID(c, body.TeacherID)
	if !ok {
		return 0, 0, false
	}
	return id, teacherID, true
}
