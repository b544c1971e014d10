// Package main implements the taskpulse CLI, which reviews task progress
// against commit history and writes verdicts back to the task sheet.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// configPath overrides the default config file location
	configPath string
	// version information
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taskpulse",
	Short: "Review task progress from commit history",
	Long: `taskpulse reads tasks from a Google Sheet, finds the commits related to
each task across the configured repositories, summarizes them with an LLM,
predicts whether each task is on track, and writes the verdicts back to the
sheet under date-stamped columns.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/taskpulse/config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(configCmd)
}
