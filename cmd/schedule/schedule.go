// Package schedule implements the schedule command, which runs the sync
// pipeline periodically on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"wikiseed/cmd/common"
	"wikiseed/internal/domain"
	"wikiseed/internal/logger"
	"wikiseed/internal/pipeline"
)

// Command creates the schedule command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run periodic syncs on a cron schedule",
		Long: `Schedule runs the full sync pipeline on the configured cron
expression (pipeline.schedule, default "@hourly") until interrupted
with Ctrl+C. Each tick is an incremental run: unchanged pages are
skipped, so steady-state ticks are cheap.`,
		RunE: runSchedule,
	}
}

// runSchedule executes the schedule command.
func runSchedule(cmd *cobra.Command, _ []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	result, err := common.NewRunner(cmd.Context(), deps)
	if err != nil {
		return fmt.Errorf("failed to wire pipeline: %w", err)
	}
	defer result.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spec := deps.Config.Pipeline.Schedule
	scheduler := cron.New()
	if _, addErr := scheduler.AddFunc(spec, func() {
		tick(ctx, result.Runner, deps.Logger)
	}); addErr != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, addErr)
	}

	deps.Logger.Info("Starting scheduled syncs", "schedule", spec)
	scheduler.Start()

	// Run once immediately so a fresh deployment does not wait a full
	// interval for its first data.
	tick(ctx, result.Runner, deps.Logger)

	<-ctx.Done()
	deps.Logger.Info("Shutdown signal received")

	// Stop returns a context that completes when running jobs finish.
	<-scheduler.Stop().Done()
	deps.Logger.Info("Scheduler stopped")
	return nil
}

// tick runs one full sync of every category.
func tick(ctx context.Context, runner *pipeline.Runner, log logger.Interface) {
	if ctx.Err() != nil {
		return
	}

	summary, err := runner.Run(ctx, domain.AllCategories())
	if err != nil {
		log.Error("scheduled sync failed", "error", err.Error())
		return
	}

	log.Info("scheduled sync finished",
		"run_id", summary.RunID,
		"failed", summary.TotalFailed(),
	)
}
