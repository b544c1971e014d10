package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskpulse/internal/pipeline"
)

// matchCmd lists matched commits without calling the LLM
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "List the commits matched to each task",
	Long: `Read the task sheet and list, per task, the commits that would be
summarized by "taskpulse run". No LLM calls are made and nothing is written.

Examples:
  taskpulse match
  taskpulse match --config ./taskpulse.yaml`,
	RunE: runMatch,
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipelineFor(ctx, false, true)
	if err != nil {
		return err
	}
	listing, err := p.Match(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tasks: %w", err)
	}
	printMatches(cmd.OutOrStdout(), listing)
	return nil
}

func printMatches(w io.Writer, listing []pipeline.TaskMatches) {
	for _, tm := range listing {
		switch {
		case tm.Skipped:
			fmt.Fprintf(w, "%s: skipped (no valid keyword pattern)\n", tm.Task.Name)
		case len(tm.Commits) == 0:
			fmt.Fprintf(w, "%s: no matching commits\n", tm.Task.Name)
		default:
			fmt.Fprintf(w, "%s:\n", tm.Task.Name)
			for _, c := range tm.Commits {
				fmt.Fprintf(w, "  %s %s\n", c.Repo, c)
			}
		}
	}
}
