package handler

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	apperrors "project-schedule-api/pkg/errors"
)

const indexFile = "/index.html"

// StaticHandler 前端构建产物，未命中的路径回退到 index.html
type StaticHandler struct {
	root http.FileSystem
}

// NewStaticHandler 以 dir 为根目录创建静态资源处理器
func NewStaticHandler(fs afero.Fs, dir string) *StaticHandler {
	return &StaticHandler{root: afero.NewHttpFs(fs).Dir(dir)}
}

// Serve 作为 NoRoute 处理器使用
func (h *StaticHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.AbortWithStatusJSON(http.StatusNotFound, apperrors.ErrNotFound)
		return
	}

	name := path.Clean("/" + c.Request.URL.Path)
	if h.serveFile(c, name) || h.serveFile(c, indexFile) {
		return
	}
	c.AbortWithStatusJSON(http.StatusNotFound, apperrors.ErrNotFound)
}

// serveFile 文件存在且不是目录时写出并返回 true
func (h *StaticHandler) serveFile(c *gin.Context, name string) bool {
	f, err := h.root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	return true
}
