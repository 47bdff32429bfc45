package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

var planCmd = &cobra.Command{
	Use:   "plan <input-dir>",
	Short: "Preview a run without writing output",
	Long: `Discovers acquisitions and allocates sequences exactly as a run would,
then prints the resulting identities and frame counts without touching the
output directory. Shares all flags with run.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	registerRunFlags(planCmd.Flags())
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if services == nil || services.Pipeline == nil {
		return errors.New("pipeline not configured")
	}
	ctx := cmd.Context()

	cfg, err := buildRunConfig(cmd, args)
	if err != nil {
		return err
	}
	// Planning never writes, but validation still wants an output root to
	// check the outside-the-input guard against.
	if cfg.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required (--output-dir)", domain.ErrFatalConfig)
	}

	candidates, discovery, err := services.Pipeline.Discover(ctx, cfg)
	if err != nil {
		return err
	}

	plan, err := services.Pipeline.Plan(ctx, cfg, jobsFor(candidates, cfg))
	if err != nil {
		return err
	}
	plan.Warnings = append(discovery, plan.Warnings...)
	cmd.Print(renderPlan(plan))
	return nil
}
