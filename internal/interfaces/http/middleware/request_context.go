package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"project-schedule-api/pkg/logger"
)

// 请求头
const (
	RequestIDHeader = "X-Request-ID"
	// OperatorHeader 调用方声明的操作人，仅用于日志关联
	OperatorHeader = "X-Operator"
)

// RequestContext 为每个请求准备日志上下文：请求 ID（缺省时生成）与操作人
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID)
		if op := c.GetHeader(OperatorHeader); op != "" {
			ctx = logger.WithContext(ctx, logger.OperatorKey, op)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
