package handler

import (
	"net/http"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应，按业务错误类别映射 HTTP 状态码
func ErrorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindInvalidState, apperr.KindInvalidTransition, apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUpstream:
		status = http.StatusBadGateway
	case apperr.KindInvariant:
		// 一致性校验失败属于程序缺陷，必须带上下文落日志
		logger.Error("Invariant violation surfaced to handler: %v", err)
	}

	c.JSON(status, Response{
		Success: false,
		Message: err.Error(),
		Data:    nil,
	})
}
