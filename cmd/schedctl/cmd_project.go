package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"project-schedule-api/internal/application/schedule"
	"project-schedule-api/internal/domain/entity"
)

var projectFields = []string{
	"name", "status", "progress", "start", "end", "owner",
	"partners", "developers", "testers", "product-manager", "pmo", "remark",
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "项目管理",
	}
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectAddCmd())
	cmd.AddCommand(newProjectUpdateCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func addProjectFlags(c *cobra.Command) {
	c.Flags().String("name", "", "项目名称")
	c.Flags().String("status", "", "状态: normal/delayed/risk/completed/pending/paused")
	c.Flags().Int("progress", 0, "进度 0-100")
	c.Flags().String("start", "", "开始日期 YYYY-MM-DD")
	c.Flags().String("end", "", "结束日期 YYYY-MM-DD")
	c.Flags().String("owner", "", "负责人")
	c.Flags().StringSlice("partners", nil, "协作方，逗号分隔")
	c.Flags().StringSlice("developers", nil, "开发人员，逗号分隔")
	c.Flags().StringSlice("testers", nil, "测试人员，逗号分隔")
	c.Flags().String("product-manager", "", "产品经理姓名")
	c.Flags().String("pmo", "", "PMO 姓名")
	c.Flags().String("remark", "", "备注")
	c.Flags().String("json", "", "以 JSON 提供全部字段，与其他字段标志互斥")
}

func projectPatchFromFlags(cmd *cobra.Command) schedule.ProjectPatch {
	return schedule.ProjectPatch{
		Name:           stringFlag(cmd, "name"),
		Status:         typedFlag[entity.ProjectStatus](cmd, "status"),
		Progress:       intFlag(cmd, "progress"),
		StartDate:      stringFlag(cmd, "start"),
		EndDate:        stringFlag(cmd, "end"),
		Owner:          stringFlag(cmd, "owner"),
		Partners:       sliceFlag(cmd, "partners"),
		Developers:     sliceFlag(cmd, "developers"),
		Testers:        sliceFlag(cmd, "testers"),
		ProductManager: stringFlag(cmd, "product-manager"),
		PMO:            stringFlag(cmd, "pmo"),
		Remark:         stringFlag(cmd, "remark"),
	}
}

// projectFromFlags 新项目；未指定状态时为 normal
func projectFromFlags(cmd *cobra.Command) (entity.Project, error) {
	var p entity.Project
	usedJSON, err := jsonFlag(cmd, &p)
	if err != nil {
		return p, err
	}
	if usedJSON && anyChanged(cmd, projectFields...) {
		return p, fmt.Errorf("--json cannot be combined with field flags")
	}
	if !usedJSON {
		patch := projectPatchFromFlags(cmd)
		p = entity.Project{
			Name:           value(patch.Name),
			Status:         value(patch.Status),
			Progress:       value(patch.Progress),
			StartDate:      value(patch.StartDate),
			EndDate:        value(patch.EndDate),
			Owner:          value(patch.Owner),
			Partners:       value(patch.Partners),
			Developers:     value(patch.Developers),
			Testers:        value(patch.Testers),
			ProductManager: value(patch.ProductManager),
			PMO:            value(patch.PMO),
			Remark:         value(patch.Remark),
		}
	}
	if p.Name == "" {
		return p, fmt.Errorf("project name is required")
	}
	if p.Status == "" {
		p.Status = entity.ProjectStatusNormal
	}
	return p, nil
}

func projectTable(projects []entity.Project) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		row(tw, "ID", "NAME", "STATUS", "PROGRESS", "START", "END", "OWNER", "DEVELOPERS")
		for _, p := range projects {
			row(tw, p.ID, p.Name, p.Status, fmt.Sprintf("%d%%", p.Progress),
				orDash(p.StartDate), orDash(p.EndDate), orDash(p.Owner), joinNames(p.Developers))
		}
	}
}

func newProjectListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出项目",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			statuses, _ := cmd.Flags().GetStringSlice("status")
			filter := make([]entity.ProjectStatus, 0, len(statuses))
			for _, st := range statuses {
				filter = append(filter, entity.ProjectStatus(st))
			}
			s.store.SetStatusFilter(filter...)

			projects := s.store.FilteredProjects()
			return printOutput(cmd.OutOrStdout(), s.output, projects, projectTable(projects))
		},
	}
	c.Flags().StringSlice("status", nil, "按状态过滤，逗号分隔")
	return c
}

func newProjectAddCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add",
		Short: "新建项目",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := projectFromFlags(cmd)
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			created, err := s.store.AddProject(cmd.Context(), p)
			if err != nil {
				return err
			}
			if err := s.commit(cmd.Context()); err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), s.output, created, projectTable([]entity.Project{created}))
		},
	}
	addProjectFlags(c)
	return c
}

func newProjectUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "update <id>",
		Short: "更新项目字段，只修改显式给出的字段",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch schedule.ProjectPatch
			usedJSON, err := jsonFlag(cmd, &patch)
			if err != nil {
				return err
			}
			switch {
			case usedJSON && anyChanged(cmd, projectFields...):
				return fmt.Errorf("--json cannot be combined with field flags")
			case !usedJSON && !anyChanged(cmd, projectFields...):
				return fmt.Errorf("nothing to update")
			case !usedJSON:
				patch = projectPatchFromFlags(cmd)
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.store.UpdateProject(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			return s.commit(cmd.Context())
		},
	}
	addProjectFlags(c)
	return c
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "删除项目及其全部任务",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.store.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			return s.commit(cmd.Context())
		},
	}
}
