package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <input-dir>",
	Short: "Process acquisition folders as they appear",
	Long: `Watches the input directory and runs the pipeline whenever the tree goes
quiet for the debounce window. Region resolution must work without prompts
(folder naming or --region); runs are serialized. Ctrl-C stops between runs.
Shares all flags with run.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	registerRunFlags(watchCmd.Flags())
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before a run starts")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if services == nil || services.Watcher == nil {
		return errors.New("watcher not configured")
	}

	cfg, err := buildRunConfig(cmd, args)
	if err != nil {
		return err
	}
	// A watched tree has nobody to answer prompts.
	cfg.Interactive = false
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = services.Watcher.Watch(ctx, cfg)
	if errors.Is(err, context.Canceled) {
		cmd.Println("Watch stopped.")
		return nil
	}
	return err
}
