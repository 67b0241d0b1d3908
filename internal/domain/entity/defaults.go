package entity

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DefaultTaskTypes 首次运行时写入的任务类型
func DefaultTaskTypes() []TaskType {
	return []TaskType{
		{ID: "tasktype-dev", Name: "开发排期", Color: "#1677ff", Enabled: true},
		{ID: "tasktype-dev-integration", Name: "开发联调", Color: "#13c2c2", Enabled: true},
		{ID: "tasktype-test", Name: "测试排期", Color: "#52c41a", Enabled: true},
		{ID: "tasktype-test-integration", Name: "测试联调", Color: "#faad14", Enabled: true},
		{ID: "tasktype-uat", Name: "产品UAT", Color: "#722ed1", Enabled: true},
		{ID: "tasktype-release", Name: "上线", Color: "#f5222d", Enabled: true},
	}
}

// DefaultPMOs 默认 PMO 列表
func DefaultPMOs() []PMO {
	return []PMO{
		{ID: "pmo-1", Name: "陈静", Enabled: true},
		{ID: "pmo-2", Name: "刘洋", Enabled: true},
	}
}

// DefaultProductManagers 默认产品经理列表
func DefaultProductManagers() []ProductManager {
	return []ProductManager{
		{ID: "pm-1", Name: "王芳", Enabled: true},
		{ID: "pm-2", Name: "赵磊", Enabled: true},
		{ID: "pm-3", Name: "孙悦", Enabled: true},
	}
}

type mockProject struct {
	name       string
	status     ProjectStatus
	progress   int
	startDays  int
	lengthDays int
	owner      string
	pm         string
	pmo        string
	developers []string
	testers    []string
}

var mockProjects = []mockProject{
	{"会员中心改版", ProjectStatusNormal, 45, -14, 42, "张伟", "王芳", "陈静", []string{"李娜", "周杰"}, []string{"吴敏"}},
	{"订单履约系统", ProjectStatusRisk, 30, -21, 35, "李强", "赵磊", "刘洋", []string{"黄涛", "郑凯", "何欢"}, []string{"冯雪"}},
	{"数据看板 2.0", ProjectStatusDelayed, 60, -40, 45, "王磊", "孙悦", "陈静", []string{"马超"}, []string{"朱琳", "胡斌"}},
	{"支付渠道接入", ProjectStatusCompleted, 100, -60, 30, "刘敏", "王芳", "刘洋", []string{"高远", "林峰"}, []string{"罗兰"}},
	{"消息推送平台", ProjectStatusPending, 0, 7, 28, "陈晨", "赵磊", "陈静", []string{"谢明"}, []string{"宋佳"}},
}

// SeedDataset 首次运行时使用的内置数据：默认任务类型与 5 个示例项目
func SeedDataset(now time.Time) Dataset {
	types := DefaultTaskTypes()
	day := now.Truncate(24 * time.Hour)

	d := Dataset{
		TaskTypes:       types,
		PMOs:            DefaultPMOs(),
		ProductManagers: DefaultProductManagers(),
	}

	for i, mp := range mockProjects {
		projectID := fmt.Sprintf("project-%d", i+1)
		start := day.AddDate(0, 0, mp.startDays)
		end := start.AddDate(0, 0, mp.lengthDays)

		d.Projects = append(d.Projects, Project{
			ID:             projectID,
			Name:           mp.name,
			Status:         mp.status,
			Progress:       mp.progress,
			StartDate:      start.Format(dateLayout),
			EndDate:        end.Format(dateLayout),
			Owner:          mp.owner,
			Partners:       []string{},
			Developers:     mp.developers,
			Testers:        mp.testers,
			ProductManager: mp.pm,
			PMO:            mp.pmo,
		})

		// 每个项目按开发、测试、上线拆成三段
		phases := []struct {
			taskType  TaskType
			from, to  float64
			assignees []string
		}{
			{types[0], 0, 0.5, mp.developers},
			{types[2], 0.5, 0.9, mp.testers},
			{types[5], 0.9, 1, []string{mp.owner}},
		}
		for j, ph := range phases {
			taskStart := start.AddDate(0, 0, int(float64(mp.lengthDays)*ph.from))
			taskEnd := start.AddDate(0, 0, int(float64(mp.lengthDays)*ph.to))
			d.Tasks = append(d.Tasks, Task{
				ID:        fmt.Sprintf("task-%d-%d", i+1, j+1),
				ProjectID: projectID,
				Name:      fmt.Sprintf("%s-%s", mp.name, ph.taskType.Name),
				TaskType:  ph.taskType,
				Status:    phaseStatus(mp, j),
				Progress:  phaseProgress(mp.progress, j),
				StartDate: taskStart.Format(dateLayout),
				EndDate:   taskEnd.Format(dateLayout),
				Assignees: append([]string{}, ph.assignees...),
			})
		}
	}

	d.Normalize()
	return d
}

func phaseStatus(mp mockProject, phase int) TaskStatus {
	switch mp.status {
	case ProjectStatusCompleted:
		return TaskStatusCompleted
	case ProjectStatusPending:
		return TaskStatusPending
	case ProjectStatusDelayed:
		if phase == 0 {
			return TaskStatusDelayed
		}
	case ProjectStatusRisk:
		if phase == 0 {
			return TaskStatusRisk
		}
	}
	if phase == 0 && mp.progress > 0 {
		return TaskStatusNormal
	}
	return TaskStatusPending
}

func phaseProgress(projectProgress, phase int) int {
	// 开发占 50%，测试占 40%，上线占 10%
	bounds := [][2]int{{0, 50}, {50, 90}, {90, 100}}
	lo, hi := bounds[phase][0], bounds[phase][1]
	switch {
	case projectProgress <= lo:
		return 0
	case projectProgress >= hi:
		return 100
	default:
		return (projectProgress - lo) * 100 / (hi - lo)
	}
}
