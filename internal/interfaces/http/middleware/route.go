// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// 路由前缀
const (
	DataPath       = "/api/data"
	ResourcePrefix = "/api/v1"
)

// routeLabel 用于指标与日志的路由名
// 未注册的路径都由静态站点兜底，合并为 static 以限制标签基数
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "static"
}

func isResourceRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, ResourcePrefix+"/")
}
