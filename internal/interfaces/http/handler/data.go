// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"project-schedule-api/internal/interfaces/http/dto"
	apperrors "project-schedule-api/pkg/errors"
)

// DefaultMaxBodyBytes POST /api/data 默认请求体上限
const DefaultMaxBodyBytes int64 = 32 << 20

// DatasetService 数据集读写
type DatasetService interface {
	Get(ctx context.Context) ([]byte, error)
	Replace(ctx context.Context, body []byte) error
}

// DataHandler /api/data 处理器
type DataHandler struct {
	svc          DatasetService
	maxBodyBytes int64
}

// NewDataHandler 创建数据处理器
func NewDataHandler(svc DatasetService, maxBodyBytes int64) *DataHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &DataHandler{svc: svc, maxBodyBytes: maxBodyBytes}
}

// Get 返回整个数据集文档
// @Summary 读取数据集
// @Tags Data
// @Produce json
// @Success 200 {object} entity.Dataset
// @Failure 500 {object} apperrors.AppError
// @Router /api/data [get]
func (h *DataHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context())
	if err != nil {
		dto.DataError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

// Post 整体替换数据集文档
// @Summary 替换数据集
// @Tags Data
// @Accept json
// @Produce json
// @Success 200 {object} dto.SaveResponse
// @Failure 400 {object} apperrors.AppError
// @Failure 500 {object} apperrors.AppError
// @Router /api/data [post]
func (h *DataHandler) Post(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			dto.DataError(c, apperrors.ErrBadRequest.WithDetail("request body too large"))
			return
		}
		dto.DataError(c, apperrors.ErrBadRequest.WithDetail(err.Error()).WithError(err))
		return
	}

	if err := h.svc.Replace(c.Request.Context(), body); err != nil {
		dto.DataError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SaveResponse{OK: true, Message: "Data saved successfully"})
}

// MethodNotAllowed 已注册路径上的其他方法
func MethodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed,
		apperrors.New(apperrors.CodeMethodNotAllowed, "method not allowed"))
}
