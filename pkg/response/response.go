package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/fitsocial/pkg/apperr"
	"github.com/d60-Lab/fitsocial/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: "OK", Message: "success", Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: "OK", Message: "created", Data: data})
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Code: "INVALID_OPERATION", Message: msg})
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Code: "UNAUTHENTICATED", Message: msg})
}

// TooManyRequests 限流
func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Code: "RATE_LIMITED", Message: "too many requests"})
}

// InternalError 服务内部错误，不向客户端暴露细节
func InternalError(c *gin.Context, err error) {
	report(c, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Code: "INTERNAL", Message: "internal server error"})
}

// Error 按错误分类写出响应
func Error(c *gin.Context, err error) {
	status, code := apperr.HTTPStatus(err)
	switch {
	case status == http.StatusServiceUnavailable:
		report(c, err)
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(status, Response{Code: code, Message: "service temporarily unavailable"})
	case status >= http.StatusInternalServerError:
		InternalError(c, err)
	default:
		c.AbortWithStatusJSON(status, Response{Code: code, Message: err.Error()})
	}
}

func report(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.CaptureException(err)
	}
}
