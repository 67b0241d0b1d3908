package dto

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"project-schedule-api/internal/domain/repository"
)

// 列表查询中不作为过滤条件的保留参数
var reservedQuery = map[string]bool{
	"q":      true,
	"limit":  true,
	"offset": true,
	"sort":   true,
	"order":  true,
}

// ListQuery 列表请求参数
type ListQuery struct {
	// Keyword 非空时走关键字搜索
	Keyword string
	Options repository.ListOptions
}

// BindListQuery 解析 ?q=&limit=&offset=&sort=&order=&<field>=a,b
func BindListQuery(c *gin.Context) ListQuery {
	opts := repository.NewListOptions(
		parseIntWithDefault(c.Query("limit"), 100),
		parseIntWithDefault(c.Query("offset"), 0),
	)
	if field := c.Query("sort"); field != "" {
		opts.Sort = &repository.Sort{
			Field: field,
			Order: repository.SortOrder(strings.ToUpper(c.DefaultQuery("order", "asc"))),
		}
	}
	for field, values := range c.Request.URL.Query() {
		if reservedQuery[field] {
			continue
		}
		var split []string
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					split = append(split, part)
				}
			}
		}
		if len(split) > 0 {
			opts = opts.Where(field, split...)
		}
	}
	return ListQuery{Keyword: strings.TrimSpace(c.Query("q")), Options: opts}
}

// parseIntWithDefault 解析整数，失败时返回默认值
func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
