package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// stringFlag 标志被显式设置时返回其指针
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func sliceFlag(cmd *cobra.Command, name string) *[]string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetStringSlice(name)
	return &v
}

// typedFlag 用于 ProjectStatus 等字符串别名类型
func typedFlag[T ~string](cmd *cobra.Command, name string) *T {
	p := stringFlag(cmd, name)
	if p == nil {
		return nil
	}
	v := T(*p)
	return &v
}

func value[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// jsonFlag 解析 --json 参数到 dst，未设置时返回 false
func jsonFlag(cmd *cobra.Command, dst any) (bool, error) {
	raw, _ := cmd.Flags().GetString("json")
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, fmt.Errorf("invalid --json: %w", err)
	}
	return true, nil
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}
