// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/deadline-tracker/internal/pipeline"
	"github.com/pdiddy/deadline-tracker/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the scraper on a cron schedule",
	Long: `Watch keeps the process alive and performs a run on every tick of the
cron expression (default "0 8 * * *", daily at 08:00). A tick that fires
while the previous run is still busy is skipped. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("cron", "", "cron expression or descriptor such as @daily (default from config)")
	watchCmd.Flags().String("timezone", "", "IANA time zone for the schedule (default: local)")
	watchCmd.Flags().Bool("now", false, "run once immediately before waiting for the first tick")
	watchCmd.Flags().String("output-dir", "", "directory for deadlines.json, deadlines.md, changes.json")
	watchCmd.Flags().Bool("no-cache", false, "re-download files and ignore cached extractions")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if spec, _ := cmd.Flags().GetString("cron"); spec != "" {
		cfg.Schedule.Cron = spec
	}
	if tz, _ := cmd.Flags().GetString("timezone"); tz != "" {
		cfg.Schedule.Timezone = tz
	}
	noCache, _ := cmd.Flags().GetBool("no-cache")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, closeFn, err := newRunner(ctx, cfg, pipeline.Options{NoCache: noCache}, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	job := func(ctx context.Context) error {
		res, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("scheduled run complete", zap.Int("deadlines", len(res.Deadlines)))
		return nil
	}

	s, err := scheduler.New(cfg.Schedule.Cron, cfg.Schedule.Timezone, job, logger)
	if err != nil {
		return err
	}

	if now, _ := cmd.Flags().GetBool("now"); now {
		if err := job(ctx); err != nil {
			logger.Error("initial run failed", zap.Error(err))
		}
	}

	logger.Info("watching", zap.String("cron", cfg.Schedule.Cron), zap.String("timezone", s.Location().String()))
	s.Run(ctx)
	return nil
}
