package schedule

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
)

// Marker 记录本地是否已完成过首次初始化
type Marker interface {
	Seen() bool
	MarkSeen() error
}

// FileMarker 以状态目录下的文件作为标记
type FileMarker struct {
	fs   afero.Fs
	path string
}

// NewFileMarker 创建文件标记，fs 为空时使用本地文件系统
func NewFileMarker(fs afero.Fs, dir string) *FileMarker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileMarker{fs: fs, path: filepath.Join(dir, "initialized")}
}

// Seen 标记文件存在即视为已初始化
func (m *FileMarker) Seen() bool {
	ok, err := afero.Exists(m.fs, m.path)
	return err == nil && ok
}

// MarkSeen 写入标记文件
func (m *FileMarker) MarkSeen() error {
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(m.fs, m.path, []byte(time.Now().Format(time.RFC3339)), 0o644)
}

// MemoryMarker 内存标记
type MemoryMarker struct {
	seen atomic.Bool
}

// NewMemoryMarker 创建内存标记
func NewMemoryMarker(seen bool) *MemoryMarker {
	m := &MemoryMarker{}
	m.seen.Store(seen)
	return m
}

func (m *MemoryMarker) Seen() bool { return m.seen.Load() }

func (m *MemoryMarker) MarkSeen() error {
	m.seen.Store(true)
	return nil
}
