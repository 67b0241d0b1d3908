package main

import (
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"project-schedule-api/internal/domain/entity"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "操作历史",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryClearCmd())
	return cmd
}

// filterHistory 按实体过滤并截断，limit<=0 表示不限
func filterHistory(records []entity.HistoryRecord, entityType, entityID string, limit int) []entity.HistoryRecord {
	out := []entity.HistoryRecord{}
	for _, r := range records {
		if entityType != "" && string(r.EntityType) != entityType {
			continue
		}
		if entityID != "" && r.EntityID != entityID {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func changedFields(c entity.Changes) string {
	if len(c) == 0 {
		return "-"
	}
	fields := make([]string, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return strings.Join(fields, ",")
}

func historyTable(records []entity.HistoryRecord) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		row(tw, "WHEN", "OPERATOR", "OPERATION", "TYPE", "NAME", "CHANGED")
		for _, r := range records {
			row(tw, humanize.Time(r.OperatedAt), orDash(r.Operator), r.Operation, r.EntityType,
				orDash(r.EntityName), changedFields(r.Changes))
		}
	}
}

func newHistoryListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出操作历史，最新的在前",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			entityType, _ := cmd.Flags().GetString("entity-type")
			entityID, _ := cmd.Flags().GetString("entity-id")
			limit, _ := cmd.Flags().GetInt("limit")
			records := filterHistory(s.store.Snapshot().HistoryRecords, entityType, entityID, limit)
			return printOutput(cmd.OutOrStdout(), s.output, records, historyTable(records))
		},
	}
	c.Flags().String("entity-type", "", "实体类型: project/task/taskType/pmo/productManager")
	c.Flags().String("entity-id", "", "实体 ID")
	c.Flags().Int("limit", 20, "最多显示条数，0 表示全部")
	return c
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "清空操作历史",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.store.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			return s.commit(cmd.Context())
		},
	}
}
