package handler

import (
	"errors"
	"net/http"

	"github.com/blues/crowdfund/internal/logic"
	"github.com/blues/crowdfund/internal/wizard"
	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// errorWithData 错误响应，附带出错字段等信息
func errorWithData(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    data,
	})
}

// handleError 将业务错误映射为 HTTP 状态码
func handleError(c *gin.Context, err error) {
	var verr *wizard.ValidationError
	switch {
	case errors.As(err, &verr):
		errorWithData(c, http.StatusUnprocessableEntity, err.Error(), gin.H{"step": verr.Step, "invalid": verr.Fields})
	case errors.Is(err, logic.ErrSessionNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, logic.ErrConfirmationRequired):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrNotReady), errors.Is(err, logic.ErrWrongSession):
		ErrorResponse(c, http.StatusConflict, err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
