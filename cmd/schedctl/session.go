package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"project-schedule-api/internal/application/schedule"
	"project-schedule-api/internal/config"
	"project-schedule-api/pkg/logger"
	"project-schedule-api/pkg/retry"
)

// session 一次命令执行期间的配置与同步存储
type session struct {
	cfg    *config.Config
	output string
	store  *schedule.Store
}

// addGlobalFlags 为 root 命令添加全局标志
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("api", "", "服务地址 (默认取 sync.api_base_url)")
	cmd.PersistentFlags().String("operator", "", "历史记录中的操作人 (默认取 sync.operator)")
	cmd.PersistentFlags().String("state-dir", "", "本地状态目录 (默认取 sync.state_dir)")
	cmd.PersistentFlags().StringP("output", "o", outputTable, "输出格式: table / json / yaml")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "输出调试日志")
}

// openSession 加载配置、创建存储并完成首次加载
// 调用方负责 close
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("api"); v != "" {
		cfg.Sync.APIBaseURL = v
	}
	if v, _ := cmd.Flags().GetString("operator"); v != "" {
		cfg.Sync.Operator = v
	}
	if v, _ := cmd.Flags().GetString("state-dir"); v != "" {
		cfg.Sync.StateDir = v
	}
	output, _ := cmd.Flags().GetString("output")
	if err := checkOutput(output); err != nil {
		return nil, err
	}

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger.Init(level, "text", "stderr")

	stateDir := cfg.Sync.StateDir
	if stateDir == "" {
		stateDir = filepath.Join(".", ".schedctl")
	}

	remote := schedule.NewHTTPRemote(cfg.APIBaseURL(), cfg.Sync.RequestTimeout)
	store := schedule.NewStore(remote,
		schedule.WithOperator(cfg.Sync.Operator),
		schedule.WithRetry(retry.Config{Attempts: cfg.Sync.Retry.Attempts, Delay: cfg.Sync.Retry.Delay}),
		schedule.WithPollInterval(cfg.Sync.PollInterval),
		schedule.WithMarker(schedule.NewFileMarker(afero.NewOsFs(), stateDir)),
	)

	ctx := logger.WithContext(cmd.Context(), logger.OperatorKey, cfg.Sync.Operator)
	cmd.SetContext(ctx)
	if err := store.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return &session{cfg: cfg, output: output, store: store}, nil
}

// commit 等待本次修改写回服务端
func (s *session) commit(ctx context.Context) error {
	if err := s.store.Flush(ctx); err != nil {
		return fmt.Errorf("changes kept locally but not saved to %s: %w", s.cfg.APIBaseURL(), err)
	}
	return nil
}

func (s *session) close() {
	s.store.Close()
}
