// Package filestore 将整个数据集保存为单个 JSON 文件
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"project-schedule-api/pkg/logger"
	"project-schedule-api/pkg/metrics"
)

const (
	lockSuffix = ".lock"

	// DefaultStaleAfter 超过该时长的锁文件视为遗弃
	DefaultStaleAfter = 30 * time.Second
)

// Store 单文件 JSON 存储
// 写入采用同目录临时文件加 rename，读者只会看到完整的旧内容或新内容。
// 锁文件仅为建议锁，用于协调少量本地进程。
type Store struct {
	fs         afero.Fs
	path       string
	staleAfter time.Duration
	now        func() time.Time

	mu    sync.Mutex
	token string
}

// Option 存储选项
type Option func(*Store)

// WithFs 指定文件系统，测试中可使用内存或只读文件系统
func WithFs(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

// WithStaleAfter 设置锁过期时长
func WithStaleAfter(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New 创建文件存储
func New(path string, opts ...Option) *Store {
	s := &Store{
		fs:         afero.NewOsFs(),
		path:       path,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path 数据文件路径
func (s *Store) Path() string {
	return s.path
}

// LockPath 锁文件路径
func (s *Store) LockPath() string {
	return s.path + lockSuffix
}

// Read 读取文档；文件不存在或不是合法 JSON 时返回 nil
func (s *Store) Read() json.RawMessage {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn(context.Background(), "failed to read data file", "path", s.path, "error", err.Error())
		}
		return nil
	}
	if !json.Valid(data) {
		logger.Warn(context.Background(), "data file is not valid json", "path", s.path, "size", len(data))
		return nil
	}
	return json.RawMessage(data)
}

// Write 原子写入文档，失败返回 false
func (s *Store) Write(doc []byte) bool {
	ctx := context.Background()
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		logger.Warn(ctx, "failed to create data dir", "dir", dir, "error", err.Error())
		return false
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		logger.Warn(ctx, "failed to create temp file", "dir", dir, "error", err.Error())
		return false
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		logger.Warn(ctx, "failed to write temp file", "path", tmpPath, "error", err.Error())
		return false
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		logger.Warn(ctx, "failed to sync temp file", "path", tmpPath, "error", err.Error())
		return false
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		logger.Warn(ctx, "failed to close temp file", "path", tmpPath, "error", err.Error())
		return false
	}

	_ = s.fs.Chmod(tmpPath, 0o644)

	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		logger.Warn(ctx, "failed to rename temp file", "from", tmpPath, "to", s.path, "error", err.Error())
		return false
	}
	return true
}

// AcquireLock 获取锁
// 锁文件不存在时独占创建；已存在但超过 staleAfter 或内容无法解析时直接覆盖
func (s *Store) AcquireLock() bool {
	ctx := context.Background()
	lockPath := s.LockPath()
	if err := s.fs.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		logger.Warn(ctx, "failed to create lock dir", "path", lockPath, "error", err.Error())
		return false
	}

	token := strconv.FormatInt(s.now().UnixMilli(), 10)

	f, err := s.fs.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		_, werr := f.WriteString(token)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = s.fs.Remove(lockPath)
			logger.Warn(ctx, "failed to write lock file", "path", lockPath)
			return false
		}
		s.setToken(token)
		metrics.LockContentionTotal.WithLabelValues("acquired").Inc()
		return true
	}
	if !errors.Is(err, os.ErrExist) {
		logger.Warn(ctx, "failed to create lock file", "path", lockPath, "error", err.Error())
		return false
	}

	if !s.isStale(lockPath) {
		metrics.LockContentionTotal.WithLabelValues("held").Inc()
		return false
	}

	if err := afero.WriteFile(s.fs, lockPath, []byte(token), 0o644); err != nil {
		logger.Warn(ctx, "failed to override stale lock", "path", lockPath, "error", err.Error())
		return false
	}
	s.setToken(token)
	metrics.LockContentionTotal.WithLabelValues("stale").Inc()
	logger.Info(ctx, "overrode stale lock", "path", lockPath)
	return true
}

// ReleaseLock 释放锁；未持有锁或锁已被其他写者接管时保持不动
func (s *Store) ReleaseLock() {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.mu.Unlock()
	if token == "" {
		return
	}

	lockPath := s.LockPath()
	data, err := afero.ReadFile(s.fs, lockPath)
	if err != nil {
		return
	}
	if strings.TrimSpace(string(data)) != token {
		return
	}
	if err := s.fs.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn(context.Background(), "failed to release lock", "path", lockPath, "error", err.Error())
	}
}

func (s *Store) isStale(lockPath string) bool {
	data, err := afero.ReadFile(s.fs, lockPath)
	if err != nil {
		// 读取期间锁被释放，交给下一次尝试
		return false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return true
	}
	return s.now().Sub(time.UnixMilli(ms)) > s.staleAfter
}

func (s *Store) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}
