package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs",
	Long: `Lists runs recorded in the ledger, newest first. With a run id, prints
that run's full per-acquisition summary table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if services == nil || services.History == nil {
		return errors.New("history not configured")
	}
	ctx := cmd.Context()

	if len(args) > 0 {
		run, err := services.History.Show(ctx, args[0])
		if err != nil {
			return err
		}
		cmd.Print(renderSummary(run))
		return nil
	}

	runs, err := services.History.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	cmd.Print(renderHistory(runs))
	return nil
}
