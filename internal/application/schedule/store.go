package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/pkg/logger"
	"project-schedule-api/pkg/metrics"
	"project-schedule-api/pkg/retry"
)

// ErrClosed 存储已关闭
var ErrClosed = errors.New("schedule store closed")

// DefaultPollInterval 默认拉取间隔
const DefaultPollInterval = 30 * time.Second

// Status 同步状态
type Status struct {
	// Dirty 本地存在尚未成功写入服务端的变更
	Dirty           bool      `json:"dirty"`
	Persisting      bool      `json:"persisting"`
	LastError       string    `json:"lastError,omitempty"`
	LastPersistedAt time.Time `json:"lastPersistedAt,omitzero"`
	LastPulledAt    time.Time `json:"lastPulledAt,omitzero"`
}

// Selection 界面选择状态，不参与持久化
type Selection struct {
	ProjectID string                 `json:"projectId,omitempty"`
	Statuses  []entity.ProjectStatus `json:"statuses,omitempty"`
}

// Listener 状态变化回调，参数为只读快照
type Listener func(entity.Dataset)

// Option 存储选项
type Option func(*Store)

// WithOperator 设置历史记录中的操作人
func WithOperator(operator string) Option {
	return func(s *Store) {
		if operator != "" {
			s.operator = operator
		}
	}
}

// WithClock 设置时钟
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetry 设置持久化重试策略
func WithRetry(cfg retry.Config) Option {
	return func(s *Store) { s.retry = cfg }
}

// WithPollInterval 设置拉取间隔
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithMarker 设置首次运行标记
func WithMarker(m Marker) Option {
	return func(s *Store) { s.marker = m }
}

// WithSeed 设置首次运行时的内置数据
func WithSeed(seed func(now time.Time) entity.Dataset) Option {
	return func(s *Store) { s.seed = seed }
}

// Store 客户端同步存储
// 变更在锁内同步生效，随后异步写回服务端；写回串行执行且只写最新快照
type Store struct {
	remote       Remote
	marker       Marker
	retry        retry.Config
	pollInterval time.Duration
	operator     string
	now          func() time.Time
	seed         func(time.Time) entity.Dataset
	ids          *IDGenerator

	mu        sync.RWMutex
	state     entity.Dataset
	selection Selection
	status    Status
	version   uint64 // 每次本地变更递增
	persisted uint64 // 已写回服务端的版本
	markSeen  bool   // 写回成功后记录首次初始化
	listeners map[int]Listener
	nextID    int

	ctx      context.Context
	cancel   context.CancelFunc
	persistC chan struct{}
	flushC   chan chan error
	wg       sync.WaitGroup
	closed   sync.Once
}

// NewStore 创建存储并启动后台写回
func NewStore(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote:       remote,
		marker:       NewMemoryMarker(false),
		retry:        retry.DefaultConfig(),
		pollInterval: DefaultPollInterval,
		operator:     entity.DefaultOperator,
		now:          time.Now,
		seed:         entity.SeedDataset,
		state:        entity.EmptyDataset(),
		listeners:    make(map[int]Listener),
		persistC:     make(chan struct{}, 1),
		flushC:       make(chan chan error),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = NewIDGenerator(s.now)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.persistLoop()
	return s
}

// Snapshot 返回当前数据集的副本
func (s *Store) Snapshot() entity.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Status 返回同步状态
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Subscribe 注册状态变化回调，返回取消函数
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Dispatch 执行命令：锁内应用并替换状态，通知订阅者，再触发异步写回
func (s *Store) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	s.mu.Lock()
	res, err := Apply(s.state, cmd, Meta{Operator: s.operator, Now: s.now(), IDs: s.ids})
	if err != nil || !res.Changed {
		s.mu.Unlock()
		return res, err
	}
	s.state = res.State
	s.version++
	s.setDirtyLocked(true)
	if del, ok := cmd.(DeleteProject); ok && s.selection.ProjectID == del.ID {
		s.selection.ProjectID = ""
	}
	snapshot, listeners := s.state, s.listenersLocked()
	s.mu.Unlock()

	logger.Debug(ctx, "schedule command applied", "history_records", len(res.History))
	notify(listeners, snapshot)
	s.schedulePersist()
	return res, nil
}

// Load 首次加载
// 服务端有数据则采用；服务端为空且首次运行时写入内置数据；
// 服务端不可达时首次运行使用内置数据但不写回，否则使用空数据集。
// 是否首次运行由 Marker 判断：非首次运行时服务端为空视为有意清空，不会重新写入内置数据
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.remote.Fetch(ctx)
	firstRun := !s.marker.Seen()
	now := s.now()

	var (
		next  entity.Dataset
		dirty bool
	)
	switch {
	case err != nil && firstRun:
		logger.Warn(ctx, "server unreachable on first run, using built-in defaults", "error", err.Error())
		next = s.seed(now)
	case err != nil:
		logger.Warn(ctx, "server unreachable, starting with an empty dataset", "error", err.Error())
		next = entity.EmptyDataset()
	case HasCollections(raw):
		next = Decode(raw)
		if firstRun {
			if err := s.marker.MarkSeen(); err != nil {
				logger.Warn(ctx, "failed to record initialization", "error", err.Error())
			}
		}
	case firstRun:
		logger.Info(ctx, "server has no data, seeding built-in defaults")
		next = s.seed(now)
		dirty = true
	default:
		next = Decode(raw)
	}
	next.Normalize()

	s.mu.Lock()
	s.state = next
	s.version++
	if err == nil {
		s.status.LastPulledAt = now
		metrics.SyncPullTotal.WithLabelValues("success").Inc()
	} else {
		metrics.SyncPullTotal.WithLabelValues("failure").Inc()
	}
	if dirty {
		s.markSeen = true
		s.setDirtyLocked(true)
	} else {
		s.persisted = s.version
		s.setDirtyLocked(false)
	}
	snapshot, listeners := s.state, s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
	if dirty {
		s.schedulePersist()
	}
	return nil
}

// Sync 拉取服务端文档并无条件覆盖本地状态，失败时保留原状态
func (s *Store) Sync(ctx context.Context) error {
	raw, err := s.remote.Fetch(ctx)
	if err != nil {
		metrics.SyncPullTotal.WithLabelValues("failure").Inc()
		logger.Warn(ctx, "pull failed, keeping local state", "error", err.Error())
		return err
	}
	next := Decode(raw)

	s.mu.Lock()
	s.state = next
	s.version++
	s.persisted = s.version
	s.setDirtyLocked(false)
	s.status.LastPulledAt = s.now()
	snapshot, listeners := s.state, s.listenersLocked()
	s.mu.Unlock()

	metrics.SyncPullTotal.WithLabelValues("success").Inc()
	notify(listeners, snapshot)
	return nil
}

// Run 按间隔拉取直到 ctx 结束，拉取失败被忽略
func (s *Store) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return ErrClosed
		case <-ticker.C:
			_ = s.Sync(ctx)
		}
	}
}

// Flush 立即写回尚未持久化的变更并等待结果
func (s *Store) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.flushC <- reply:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
}

// Close 停止后台写回，进行中的重试会被取消
func (s *Store) Close() {
	s.closed.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

// SetSelectedProject 设置选中的项目
func (s *Store) SetSelectedProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ProjectID = id
}

// SetStatusFilter 设置项目状态过滤
func (s *Store) SetStatusFilter(statuses ...entity.ProjectStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Statuses = append([]entity.ProjectStatus(nil), statuses...)
}

// Selection 返回当前选择状态
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel := s.selection
	sel.Statuses = append([]entity.ProjectStatus(nil), s.selection.Statuses...)
	return sel
}

// FilteredProjects 按状态过滤后的项目，未设置过滤时返回全部
func (s *Store) FilteredProjects() []entity.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.selection.Statuses) == 0 {
		return append([]entity.Project{}, s.state.Projects...)
	}
	allowed := make(map[entity.ProjectStatus]bool, len(s.selection.Statuses))
	for _, st := range s.selection.Statuses {
		allowed[st] = true
	}
	out := []entity.Project{}
	for _, p := range s.state.Projects {
		if allowed[p.Status] {
			out = append(out, p)
		}
	}
	return out
}

// TasksOf 返回项目下的任务
func (s *Store) TasksOf(projectID string) []entity.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []entity.Task{}
	for _, t := range s.state.Tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) schedulePersist() {
	select {
	case s.persistC <- struct{}{}:
	default:
		// 已有待处理的写回，届时会读取最新状态
	}
}

func (s *Store) persistLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.persistC:
			_ = s.persist()
		case reply := <-s.flushC:
			reply <- s.persist()
		}
	}
}

// persist 写回当前最新状态；无未持久化变更时直接返回
func (s *Store) persist() error {
	ctx := s.ctx

	s.mu.Lock()
	if s.version == s.persisted {
		s.mu.Unlock()
		return nil
	}
	version := s.version
	snapshot := s.state
	s.status.Persisting = true
	s.mu.Unlock()

	doc, err := json.Marshal(snapshot)
	if err == nil {
		err = retry.Do(ctx, s.retry, func(ctx context.Context) error {
			return s.remote.Push(ctx, doc)
		}, func(attempt int, err error) {
			logger.Warn(ctx, "persist attempt failed",
				"attempt", attempt,
				"max_attempts", s.retry.Attempts,
				"error", err.Error(),
			)
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Persisting = false
	if err != nil {
		// 不回滚本地状态，保持 Dirty 等待下一次变更或拉取
		s.status.LastError = err.Error()
		metrics.SyncPersistTotal.WithLabelValues("failure").Inc()
		logger.Error(ctx, "persist failed after retries, local changes kept", err)
		return err
	}

	metrics.SyncPersistTotal.WithLabelValues("success").Inc()
	s.status.LastError = ""
	s.status.LastPersistedAt = s.now()
	if version > s.persisted {
		s.persisted = version
	}
	s.setDirtyLocked(s.version != s.persisted)
	if s.markSeen {
		s.markSeen = false
		if err := s.marker.MarkSeen(); err != nil {
			logger.Warn(ctx, "failed to record initialization", "error", err.Error())
		}
	}
	return nil
}

func (s *Store) setDirtyLocked(dirty bool) {
	s.status.Dirty = dirty
	if dirty {
		metrics.SyncDirty.Set(1)
	} else {
		metrics.SyncDirty.Set(0)
	}
}

func (s *Store) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, snapshot entity.Dataset) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}
