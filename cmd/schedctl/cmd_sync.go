package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"project-schedule-api/internal/application/schedule"
	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/internal/infrastructure/messaging"
	"project-schedule-api/internal/infrastructure/persistence/redis"
	"project-schedule-api/pkg/logger"
)

// datasetSummary 数据集各集合的数量
type datasetSummary struct {
	Projects        int    `json:"projects"`
	Tasks           int    `json:"tasks"`
	TaskTypes       int    `json:"taskTypes"`
	PMOs            int    `json:"pmos"`
	ProductManagers int    `json:"productManagers"`
	HistoryRecords  int    `json:"historyRecords"`
	Size            string `json:"size"`
}

func summarize(d entity.Dataset) datasetSummary {
	raw, _ := json.Marshal(d)
	return datasetSummary{
		Projects:        len(d.Projects),
		Tasks:           len(d.Tasks),
		TaskTypes:       len(d.TaskTypes),
		PMOs:            len(d.PMOs),
		ProductManagers: len(d.ProductManagers),
		HistoryRecords:  len(d.HistoryRecords),
		Size:            humanize.Bytes(uint64(len(raw))),
	}
}

func (s datasetSummary) table(tw *tabwriter.Writer) {
	row(tw, "COLLECTION", "COUNT")
	row(tw, "projects", s.Projects)
	row(tw, "tasks", s.Tasks)
	row(tw, "taskTypes", s.TaskTypes)
	row(tw, "pmos", s.PMOs)
	row(tw, "productManagers", s.ProductManagers)
	row(tw, "historyRecords", s.HistoryRecords)
	row(tw, "size", s.Size)
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "拉取服务端数据集",
		Long:  "拉取完整数据集；json/yaml 输出整个文档，table 输出各集合数量。首次运行且服务端为空时会写入内置数据。",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.commit(cmd.Context()); err != nil {
				return err
			}

			snapshot := s.store.Snapshot()
			if s.output == outputTable {
				return printOutput(cmd.OutOrStdout(), s.output, nil, summarize(snapshot).table)
			}
			return printOutput(cmd.OutOrStdout(), s.output, snapshot, nil)
		},
	}
}

// statusView status 命令的输出
type statusView struct {
	Endpoint string          `json:"endpoint"`
	Operator string          `json:"operator"`
	Sync     schedule.Status `json:"sync"`
	Dataset  datasetSummary  `json:"dataset"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "显示同步状态与数据概况",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			view := statusView{
				Endpoint: s.cfg.APIBaseURL(),
				Operator: orDash(s.cfg.Sync.Operator),
				Sync:     s.store.Status(),
				Dataset:  summarize(s.store.Snapshot()),
			}
			return printOutput(cmd.OutOrStdout(), s.output, view, func(tw *tabwriter.Writer) {
				row(tw, "endpoint", view.Endpoint)
				row(tw, "operator", view.Operator)
				row(tw, "last pulled", since(view.Sync.LastPulledAt))
				row(tw, "last persisted", since(view.Sync.LastPersistedAt))
				row(tw, "dirty", view.Sync.Dirty)
				if view.Sync.LastError != "" {
					row(tw, "last error", view.Sync.LastError)
				}
				row(tw, "projects", view.Dataset.Projects)
				row(tw, "tasks", view.Dataset.Tasks)
				row(tw, "history", view.Dataset.HistoryRecords)
				row(tw, "size", view.Dataset.Size)
			})
		},
	}
}

func since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func newWatchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "watch",
		Short: "持续拉取并输出数据变化",
		Long:  "按 sync.poll_interval 轮询服务端；启用 Redis 变更流时收到通知立即拉取。Ctrl-C 退出。",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			unsubscribe := s.store.Subscribe(func(d entity.Dataset) {
				sum := summarize(d)
				fmt.Fprintf(out, "%s  projects=%d tasks=%d history=%d size=%s\n",
					time.Now().Format(time.TimeOnly), sum.Projects, sum.Tasks, sum.HistoryRecords, sum.Size)
			})
			defer unsubscribe()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return s.store.Run(gctx) })

			if useStream, _ := cmd.Flags().GetBool("stream"); useStream {
				sub, cleanup, err := changeSubscriber(gctx, s)
				if err != nil {
					return err
				}
				defer cleanup()
				sub.RegisterHandler(messaging.MessageTypeDatasetReplaced, func(ctx context.Context, msg *messaging.Message) error {
					var ev messaging.DatasetReplaced
					if err := msg.UnmarshalPayload(&ev); err == nil {
						logger.Debug(ctx, "dataset replaced on server", "driver", ev.Driver, "size_bytes", ev.SizeBytes)
					}
					return s.store.Sync(ctx)
				})
				g.Go(func() error { return sub.Run(gctx) })
			}

			fmt.Fprintf(out, "watching %s every %s\n", s.cfg.APIBaseURL(), s.cfg.Sync.PollInterval)
			return g.Wait()
		},
	}
	c.Flags().Bool("stream", false, "同时订阅 Redis 变更流 (需要 cache.redis 与 messaging.redis_stream 配置)")
	return c
}

// changeSubscriber 连接 Redis 并创建变更流订阅者
func changeSubscriber(ctx context.Context, s *session) (*messaging.Subscriber, func(), error) {
	if !s.cfg.Messaging.RedisStream.Enabled {
		return nil, nil, fmt.Errorf("messaging.redis_stream is disabled")
	}
	client, err := redis.NewClient(&s.cfg.Cache.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info(ctx, "subscribed to dataset change stream", "stream", s.cfg.Messaging.RedisStream.Stream)
	sub := messaging.NewSubscriber(client.Redis(), messaging.SubscriberConfig{
		Stream: messaging.Stream(s.cfg.Messaging.RedisStream.Stream),
	})
	return sub, func() { _ = client.Close() }, nil
}
