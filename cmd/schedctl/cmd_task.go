package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"project-schedule-api/internal/application/schedule"
	"project-schedule-api/internal/domain/entity"
)

var taskFields = []string{"project", "name", "type", "status", "progress", "start", "end", "assignees"}

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "任务管理",
	}
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	return cmd
}

func addTaskFlags(c *cobra.Command) {
	c.Flags().String("project", "", "所属项目 ID")
	c.Flags().String("name", "", "任务名称")
	c.Flags().String("type", "", "任务类型 ID 或名称")
	c.Flags().String("status", "", "状态: normal/delayed/risk/completed/pending")
	c.Flags().Int("progress", 0, "进度 0-100")
	c.Flags().String("start", "", "开始日期 YYYY-MM-DD")
	c.Flags().String("end", "", "结束日期 YYYY-MM-DD")
	c.Flags().StringSlice("assignees", nil, "执行人，逗号分隔")
	c.Flags().String("json", "", "以 JSON 提供全部字段，与其他字段标志互斥")
}

// resolveTaskType 按 ID 或名称查找任务类型并返回快照
// ref 为空时取第一个启用的类型
func resolveTaskType(types []entity.TaskType, ref string) (entity.TaskType, error) {
	for _, tt := range types {
		if ref == "" && tt.Enabled {
			return tt, nil
		}
		if ref != "" && (tt.ID == ref || tt.Name == ref) {
			return tt, nil
		}
	}
	if ref == "" {
		return entity.TaskType{}, fmt.Errorf("no enabled task type, pass --type")
	}
	return entity.TaskType{}, fmt.Errorf("unknown task type %q", ref)
}

func taskPatchFromFlags(cmd *cobra.Command, types []entity.TaskType) (schedule.TaskPatch, error) {
	patch := schedule.TaskPatch{
		ProjectID: stringFlag(cmd, "project"),
		Name:      stringFlag(cmd, "name"),
		Status:    typedFlag[entity.TaskStatus](cmd, "status"),
		Progress:  intFlag(cmd, "progress"),
		StartDate: stringFlag(cmd, "start"),
		EndDate:   stringFlag(cmd, "end"),
		Assignees: sliceFlag(cmd, "assignees"),
	}
	if ref := stringFlag(cmd, "type"); ref != nil {
		tt, err := resolveTaskType(types, *ref)
		if err != nil {
			return patch, err
		}
		patch.TaskType = &tt
	}
	return patch, nil
}

func taskTable(tasks []entity.Task) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		row(tw, "ID", "PROJECT", "NAME", "TYPE", "STATUS", "PROGRESS", "START", "END", "ASSIGNEES")
		for _, t := range tasks {
			row(tw, t.ID, t.ProjectID, t.Name, orDash(t.TaskType.Name), t.Status, fmt.Sprintf("%d%%", t.Progress),
				orDash(t.StartDate), orDash(t.EndDate), joinNames(t.Assignees))
		}
	}
}

func newTaskListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			var tasks []entity.Task
			if pid, _ := cmd.Flags().GetString("project"); pid != "" {
				tasks = s.store.TasksOf(pid)
			} else {
				tasks = s.store.Snapshot().Tasks
			}
			return printOutput(cmd.OutOrStdout(), s.output, tasks, taskTable(tasks))
		},
	}
	c.Flags().String("project", "", "只列出该项目的任务")
	return c
}

func newTaskAddCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add",
		Short: "新建任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				t        entity.Task
				usedJSON bool
				err      error
			)
			if usedJSON, err = jsonFlag(cmd, &t); err != nil {
				return err
			}
			if usedJSON && anyChanged(cmd, taskFields...) {
				return fmt.Errorf("--json cannot be combined with field flags")
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if !usedJSON {
				snapshot := s.store.Snapshot()
				patch, err := taskPatchFromFlags(cmd, snapshot.TaskTypes)
				if err != nil {
					return err
				}
				if patch.TaskType == nil {
					tt, err := resolveTaskType(snapshot.TaskTypes, "")
					if err != nil {
						return err
					}
					patch.TaskType = &tt
				}
				t = entity.Task{
					ProjectID: value(patch.ProjectID),
					Name:      value(patch.Name),
					TaskType:  value(patch.TaskType),
					Status:    value(patch.Status),
					Progress:  value(patch.Progress),
					StartDate: value(patch.StartDate),
					EndDate:   value(patch.EndDate),
					Assignees: value(patch.Assignees),
				}
			}
			if t.ProjectID == "" || t.Name == "" {
				return fmt.Errorf("task project and name are required")
			}
			if t.Status == "" {
				t.Status = entity.TaskStatusNormal
			}

			created, err := s.store.AddTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			if err := s.commit(cmd.Context()); err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), s.output, created, taskTable([]entity.Task{created}))
		},
	}
	addTaskFlags(c)
	return c
}

func newTaskUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "update <id>",
		Short: "更新任务字段，只修改显式给出的字段",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch schedule.TaskPatch
			usedJSON, err := jsonFlag(cmd, &patch)
			if err != nil {
				return err
			}
			switch {
			case usedJSON && anyChanged(cmd, taskFields...):
				return fmt.Errorf("--json cannot be combined with field flags")
			case !usedJSON && !anyChanged(cmd, taskFields...):
				return fmt.Errorf("nothing to update")
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if !usedJSON {
				if patch, err = taskPatchFromFlags(cmd, s.store.Snapshot().TaskTypes); err != nil {
					return err
				}
			}
			if err := s.store.UpdateTask(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			return s.commit(cmd.Context())
		},
	}
	addTaskFlags(c)
	return c
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "删除任务",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.store.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			return s.commit(cmd.Context())
		},
	}
}
