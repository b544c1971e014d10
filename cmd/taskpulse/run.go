package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskpulse/internal/pipeline"
)

var dryRun bool

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Skip the sheet write and print results instead")
}

// runCmd runs the full review
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Review all tasks and write verdicts to the sheet",
	Long: `Review every task in the task sheet.

For each task, commits unique to each configured repository branch (relative
to the base branch) and dated on or after the task start date are matched by
keyword or task-name overlap. Matched commits are summarized, a progress
verdict is predicted, and all results are written under today's
"<date> Status" and "<date> Summary" columns.

Examples:
  # Review and write results
  taskpulse run

  # Print results without touching the sheet
  taskpulse run --dry-run`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipelineFor(ctx, true, dryRun)
	if err != nil {
		return err
	}
	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), report)
	if report.SourceErr != nil {
		return fmt.Errorf("task source unavailable: %w", report.SourceErr)
	}
	return nil
}

func printReport(w io.Writer, r *pipeline.Report) {
	if r.DryRun {
		names := make([]string, 0, len(r.Results))
		for name := range r.Results {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			res := r.Results[name]
			fmt.Fprintf(w, "== %s ==\n%s\n\n%s\n\n", name, res.Status, res.Summary)
		}
	}

	fmt.Fprintf(w, "run %s: %d tasks (%d skipped), %d matched commits, %d summary errors, %d prediction errors, %d repository errors\n",
		r.RunID, r.Tasks, r.Skipped, r.Matched, r.SummaryFailures, r.PredictionFailures, r.RepoFailures)
	switch {
	case r.DryRun:
		fmt.Fprintln(w, "dry run: nothing written")
	case r.Written:
		fmt.Fprintf(w, "wrote %d rows\n", r.RowsWritten)
	case r.WriteErr != nil:
		fmt.Fprintf(w, "write failed: %v\n", r.WriteErr)
	}
}
