package entity

// Dataset 整个应用数据集，即 /api/data 读写的文档
type Dataset struct {
	Projects        []Project        `json:"projects"`
	Tasks           []Task           `json:"tasks"`
	TaskTypes       []TaskType       `json:"taskTypes"`
	PMOs            []PMO            `json:"pmos"`
	ProductManagers []ProductManager `json:"productManagers"`
	HistoryRecords  []HistoryRecord  `json:"historyRecords"`
}

// 文档中各集合的 JSON 名称
const (
	CollectionProjects        = "projects"
	CollectionTasks           = "tasks"
	CollectionTaskTypes       = "taskTypes"
	CollectionPMOs            = "pmos"
	CollectionProductManagers = "productManagers"
	CollectionHistoryRecords  = "historyRecords"
)

// CollectionNames 按文档顺序列出集合名
var CollectionNames = []string{
	CollectionProjects,
	CollectionTasks,
	CollectionTaskTypes,
	CollectionPMOs,
	CollectionProductManagers,
	CollectionHistoryRecords,
}

// EmptyDataset 返回所有集合为空数组的数据集
func EmptyDataset() Dataset {
	var d Dataset
	d.Normalize()
	return d
}

// Normalize 将 nil 集合替换为空切片，保证序列化为 []
func (d *Dataset) Normalize() {
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.TaskTypes == nil {
		d.TaskTypes = []TaskType{}
	}
	if d.PMOs == nil {
		d.PMOs = []PMO{}
	}
	if d.ProductManagers == nil {
		d.ProductManagers = []ProductManager{}
	}
	if d.HistoryRecords == nil {
		d.HistoryRecords = []HistoryRecord{}
	}
}

// IsEmpty 所有集合均为空
func (d Dataset) IsEmpty() bool {
	return len(d.Projects) == 0 &&
		len(d.Tasks) == 0 &&
		len(d.TaskTypes) == 0 &&
		len(d.PMOs) == 0 &&
		len(d.ProductManagers) == 0 &&
		len(d.HistoryRecords) == 0
}

// Clone 复制集合切片，元素为值拷贝
func (d Dataset) Clone() Dataset {
	return Dataset{
		Projects:        append([]Project{}, d.Projects...),
		Tasks:           append([]Task{}, d.Tasks...),
		TaskTypes:       append([]TaskType{}, d.TaskTypes...),
		PMOs:            append([]PMO{}, d.PMOs...),
		ProductManagers: append([]ProductManager{}, d.ProductManagers...),
		HistoryRecords:  append([]HistoryRecord{}, d.HistoryRecords...),
	}
}
