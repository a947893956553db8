package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	pkgerrors "faculty-sub/backend/pkg/errors"
	"faculty-sub/backend/pkg/response"
)

// 业务错误码（按错误分类）
const (
	codeValidation      = 10001
	codeUnauthenticated = 10002
	codeForbidden       = 10003
	codeNotFound        = 10004
	codeInvalidState    = 10005
	codeConflict        = 10006
)

// handleServiceError 将 Service 层错误按分类映射为 HTTP 响应
func handleServiceError(c *gin.Context, err error) {
	msg := pkgerrors.Message(err)
	orDefault := func(kind error) string {
		if msg != "" {
			return msg
		}
		return kind.Error()
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		response.GatewayTimeout(c)
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, codeNotFound, orDefault(pkgerrors.ErrNotFound))
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, codeValidation, orDefault(pkgerrors.ErrValidation))
	case errors.Is(err, pkgerrors.ErrInvalidState):
		response.BadRequest(c, codeInvalidState, orDefault(pkgerrors.ErrInvalidState))
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, codeConflict, orDefault(pkgerrors.ErrConflict))
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, codeForbidden, orDefault(pkgerrors.ErrForbidden))
	case errors.Is(err, pkgerrors.ErrUnauthenticated):
		response.Unauthorized(c, codeUnauthenticated, orDefault(pkgerrors.ErrUnauthenticated))
	default:
		response.InternalError(c)
	}
}
