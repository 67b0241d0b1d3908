package entity

// TaskType 任务类型
type TaskType struct {
	ID      string `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name    string `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Color   string `json:"color" gorm:"type:varchar(16)" validate:"omitempty,hexcolor"`
	Enabled bool   `json:"enabled" gorm:"default:true"`
}

// TableName 指定表名
func (TaskType) TableName() string {
	return "task_types"
}

// EntityName 返回用于历史记录展示的名称
func (t *TaskType) EntityName() string {
	return t.Name
}

// PMO 项目管理人员
type PMO struct {
	ID      string `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name    string `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Enabled bool   `json:"enabled" gorm:"default:true"`
}

// TableName 指定表名
func (PMO) TableName() string {
	return "pmos"
}

// EntityName 返回用于历史记录展示的名称
func (p *PMO) EntityName() string {
	return p.Name
}

// ProductManager 产品经理
type ProductManager struct {
	ID      string `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name    string `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Enabled bool   `json:"enabled" gorm:"default:true"`
}

// TableName 指定表名
func (ProductManager) TableName() string {
	return "product_managers"
}

// EntityName 返回用于历史记录展示的名称
func (p *ProductManager) EntityName() string {
	return p.Name
}
