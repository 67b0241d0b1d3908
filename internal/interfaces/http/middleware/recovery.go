package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"project-schedule-api/internal/interfaces/http/dto"
	"project-schedule-api/pkg/errors"
	"project-schedule-api/pkg/logger"
	"project-schedule-api/pkg/metrics"
)

// Recovery 捕获 panic 并按所在接口的错误格式返回 500
// /api/v1 使用统一响应包装，其余路径使用 {error, message, details}
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			route := routeLabel(c)
			metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()
			logger.Warn(c.Request.Context(), "panic recovered", "route", route, "stack", string(debug.Stack()))

			appErr := errors.ErrInternalError.WithError(err)
			if isResourceRequest(c) {
				dto.Fail(c, appErr)
			} else {
				dto.DataError(c, appErr)
			}
		}()
		c.Next()
	}
}
