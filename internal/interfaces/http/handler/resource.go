package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"project-schedule-api/internal/domain/repository"
	"project-schedule-api/internal/interfaces/http/dto"
	apperrors "project-schedule-api/pkg/errors"
)

// Registrar 可挂载到路由组的处理器
type Registrar interface {
	Register(g *gin.RouterGroup)
}

// ResourceHandler 基于通用仓储的实体 REST 处理器
type ResourceHandler[T any] struct {
	path string
	repo repository.CRUDRepository[T]
}

// NewResourceHandler 创建实体处理器，path 为相对路由组的路径，如 /projects
func NewResourceHandler[T any](path string, repo repository.CRUDRepository[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{path: path, repo: repo}
}

// Register 挂载 list/get/create/update/delete 路由
func (h *ResourceHandler[T]) Register(g *gin.RouterGroup) {
	r := g.Group(h.path)
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}

// List 列表；带 q 参数时按关键字搜索
func (h *ResourceHandler[T]) List(c *gin.Context) {
	ctx := c.Request.Context()
	q := dto.BindListQuery(c)

	var (
		items []*T
		err   error
	)
	if q.Keyword != "" {
		items, err = h.repo.Search(ctx, q.Keyword, q.Options.Limit)
	} else {
		items, err = h.repo.List(ctx, q.Options)
	}
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if items == nil {
		items = []*T{}
	}
	dto.SuccessWithPage(c, items, &dto.PageMeta{
		Limit:  q.Options.Limit,
		Offset: q.Options.Offset,
		Count:  len(items),
	})
}

// Get 详情
func (h *ResourceHandler[T]) Get(c *gin.Context) {
	item, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if item == nil {
		dto.Fail(c, apperrors.ErrNotFound.WithDetail(c.Param("id")))
		return
	}
	dto.Success(c, item)
}

// Create 创建，ID 为空时由仓储生成
func (h *ResourceHandler[T]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		dto.Fail(c, apperrors.ErrBadRequest.WithDetail(err.Error()).WithError(err))
		return
	}
	created, err := h.repo.Create(c.Request.Context(), &item)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Created(c, created)
}

// Update 局部更新，字段名为 JSON 名称
func (h *ResourceHandler[T]) Update(c *gin.Context) {
	var partial map[string]any
	if err := c.ShouldBindJSON(&partial); err != nil {
		dto.Fail(c, apperrors.ErrBadRequest.WithDetail(err.Error()).WithError(err))
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), c.Param("id"), partial)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if updated == nil {
		dto.Fail(c, apperrors.ErrNotFound.WithDetail(c.Param("id")))
		return
	}
	dto.Success(c, updated)
}

// Delete 删除
func (h *ResourceHandler[T]) Delete(c *gin.Context) {
	deleted, err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if !deleted {
		dto.Fail(c, apperrors.ErrNotFound.WithDetail(c.Param("id")))
		return
	}
	c.Status(http.StatusNoContent)
}
