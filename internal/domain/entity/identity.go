package entity

// GetID 返回实体 ID
func (p *Project) GetID() string { return p.ID }

// SetID 设置实体 ID
func (p *Project) SetID(id string) { p.ID = id }

func (t *Task) GetID() string   { return t.ID }
func (t *Task) SetID(id string) { t.ID = id }

func (t *TaskType) GetID() string   { return t.ID }
func (t *TaskType) SetID(id string) { t.ID = id }

func (p *PMO) GetID() string   { return p.ID }
func (p *PMO) SetID(id string) { p.ID = id }

func (p *ProductManager) GetID() string   { return p.ID }
func (p *ProductManager) SetID(id string) { p.ID = id }

func (h *HistoryRecord) GetID() string   { return h.ID }
func (h *HistoryRecord) SetID(id string) { h.ID = id }

func (c *AIConfig) GetID() string   { return c.ID }
func (c *AIConfig) SetID(id string) { c.ID = id }

func (p *AIProvider) GetID() string   { return p.ID }
func (p *AIProvider) SetID(id string) { p.ID = id }

// 生成 ID 使用的前缀，ID 形如 <prefix>-<毫秒时间戳>
const (
	IDPrefixProject        = "project"
	IDPrefixTask           = "task"
	IDPrefixTaskType       = "tasktype"
	IDPrefixPMO            = "pmo"
	IDPrefixProductManager = "pm"
	IDPrefixHistory        = "history"
)
