// Package sync implements the sync command, which pulls the selected
// categories from the wiki API, reconciles changed pages into the
// relational store and writes JSON snapshots.
package sync

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wikiseed/cmd/common"
	"wikiseed/internal/domain"
	"wikiseed/internal/pipeline"
)

// categoryFlags maps command flags to sync groups.
type categoryFlags struct {
	all          bool
	subdistricts bool
	os           bool
	arms         bool
	consumables  bool
}

// selected returns the categories chosen by the flags, in processing
// order. No flags means all categories.
func (f *categoryFlags) selected() []domain.Category {
	if f.all {
		return domain.AllCategories()
	}

	var categories []domain.Category
	if f.subdistricts {
		categories = append(categories, domain.CategorySubdistricts)
	}
	if f.os {
		categories = append(categories, domain.CategoryCyberwareOS)
	}
	if f.arms {
		categories = append(categories, domain.CategoryCyberwareArms)
	}
	if f.consumables {
		categories = append(categories, domain.CategoryConsumables)
	}

	if len(categories) == 0 {
		return domain.AllCategories()
	}
	return categories
}

// Command creates the sync command.
func Command() *cobra.Command {
	flags := &categoryFlags{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync wiki categories into the relational store",
		Long: `Sync lists the selected wiki categories, fetches content for pages
whose revision changed since the last run, reconciles them into the
store and writes per-category JSON snapshots plus a run manifest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.all, "all", false, "sync every category")
	cmd.Flags().BoolVar(&flags.subdistricts, "subdistricts", false, "sync Night City sub-districts")
	cmd.Flags().BoolVar(&flags.os, "os", false, "sync operating-system cyberware")
	cmd.Flags().BoolVar(&flags.arms, "arms", false, "sync arms cyberware")
	cmd.Flags().BoolVar(&flags.consumables, "consumables", false, "sync consumable items")

	return cmd
}

// runSync executes one full sync run.
func runSync(cmd *cobra.Command, flags *categoryFlags) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	result, err := common.NewRunner(cmd.Context(), deps)
	if err != nil {
		return fmt.Errorf("failed to wire pipeline: %w", err)
	}
	defer result.Close()

	summary, err := result.Runner.Run(cmd.Context(), flags.selected())
	if err != nil {
		return fmt.Errorf("sync run failed: %w", err)
	}

	renderSummary(summary)

	if failed := summary.TotalFailed(); failed > 0 {
		deps.Logger.Warn("run finished with page failures", "failed", failed)
	}
	return nil
}

// renderSummary formats and displays the run summary in a table format.
func renderSummary(summary *pipeline.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Category", "Listed", "Processed", "Skipped", "Failed", "Status"})

	for _, cs := range summary.Categories {
		t.AppendRow(table.Row{
			string(cs.Category),
			cs.Listed,
			cs.Processed,
			cs.Skipped,
			cs.Failed,
			cs.Status(),
		})
	}

	t.Render()

	fmt.Printf("run %s finished in %s\n",
		summary.RunID,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
	)
}
