package schedule

import (
	"fmt"
	"sync"
	"time"
)

// IDGenerator 生成 <prefix>-<毫秒时间戳> 形式的 ID
// 同一毫秒内多次生成时时间戳部分递增，保证同一生成器产出的 ID 不重复
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator 创建 ID 生成器
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next 生成下一个 ID
func (g *IDGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("%s-%d", prefix, ms)
}
