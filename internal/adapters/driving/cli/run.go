package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	configfile "github.com/holobase-labs/seqpack-cli/internal/adapters/driven/config/file"
	"github.com/holobase-labs/seqpack-cli/internal/adapters/driving/tui"
	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
)

var (
	runRegion      string
	runSensor      string
	runOutputDir   string
	runPoseCSV     string
	runLidar       string
	runCalibration string
	runPoseEpoch   string
	runMaxPerSeq   int
	runMaxPoseGap  float64
	runBatch       bool
)

var runCmd = &cobra.Command{
	Use:   "run [input-dir]",
	Short: "Normalize acquisition folders into the canonical layout",
	Long: `Discovers acquisitions under the input directory, resolves per-frame
timestamps from image metadata and an optional pose track, allocates
sequence and frame identities, and copies everything into the canonical
output tree.

Without an input directory on an interactive terminal, a wizard collects
the input path and per-acquisition region/sensor values.

Reruns into a non-empty output directory overwrite same-named files; clear
the output directory first when a clean rerun is needed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

// registerRunFlags defines the flag set shared by run, plan and watch. All
// three bind the same variables, so one parsed invocation feeds one config.
func registerRunFlags(fs *pflag.FlagSet) {
	fs.StringVar(&runRegion, "region", "", "region tag for the acquisition identifier (default: detect from folder name)")
	fs.StringVar(&runSensor, "sensor", "auto", "sensor label, or 'auto' to detect from image metadata")
	fs.StringVarP(&runOutputDir, "output-dir", "o", "", "output root (required unless stored in config)")
	fs.StringVar(&runPoseCSV, "pose-csv", "auto", "pose table path, 'auto' to discover, 'none' to disable")
	fs.StringVar(&runLidar, "lidar", "auto", "point-cloud file or folder, 'auto' to discover, 'none' to disable")
	fs.StringVar(&runCalibration, "calibration", "auto", "calibration descriptor path, 'auto' to discover, 'none' to disable")
	fs.StringVar(&runPoseEpoch, "pose-epoch", "", "epoch of pose timestamps: gps or unix (default gps)")
	fs.IntVar(&runMaxPerSeq, "max-per-seq", 0, "maximum frames per emitted sequence (default 2000)")
	fs.Float64Var(&runMaxPoseGap, "max-pose-gap", -1, "maximum pose match distance in seconds, 0 for unlimited (default 5)")
	fs.BoolVar(&runBatch, "batch", false, "treat the input as a root of acquisition subfolders")
}

func init() {
	registerRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if services == nil || services.Pipeline == nil {
		return errors.New("pipeline not configured")
	}
	ctx := cmd.Context()

	cfg, err := buildRunConfig(cmd, args)
	if err != nil {
		return err
	}

	// No input on a terminal hands over to the wizard; without a terminal a
	// missing input is a configuration error, not a hang on a prompt.
	if cfg.InputDir == "" {
		if !cfg.Interactive {
			return fmt.Errorf("%w: input directory is required when not running interactively", domain.ErrFatalConfig)
		}
		summary, err := tui.RunWizard(ctx, services.Pipeline, cfg)
		if err != nil {
			return err
		}
		if summary != nil {
			cmd.Print(renderSummary(summary))
		}
		return nil
	}

	candidates, discovery, err := services.Pipeline.Discover(ctx, cfg)
	if err != nil {
		return err
	}

	summary, runErr := services.Pipeline.Run(ctx, cfg, jobsFor(candidates, cfg), discovery)
	if summary != nil {
		cmd.Print(renderSummary(summary))
	}
	return runErr
}

// buildRunConfig resolves defaults, stored configuration and flags into the
// explicit config object the pipeline consumes. Precedence: built-in
// defaults < stored config < flags.
func buildRunConfig(cmd *cobra.Command, args []string) (domain.RunConfig, error) {
	cfg := domain.DefaultRunConfig()

	if services != nil && services.Config != nil {
		store := services.Config
		if v := store.GetString(configfile.KeyOutputDir); v != "" {
			cfg.OutputDir = v
		}
		if v := store.GetInt(configfile.KeyMaxPerSeq); v > 0 {
			cfg.MaxPerSequence = v
		}
		if v := store.GetString(configfile.KeyPoseEpoch); v != "" {
			cfg.PoseEpoch = domain.PoseEpoch(v)
		}
		if _, ok := store.Get(configfile.KeyMaxPoseGap); ok {
			cfg.MaxPoseGapSeconds = store.GetFloat(configfile.KeyMaxPoseGap)
		}
	}

	if len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return cfg, fmt.Errorf("%w: resolving input path %s: %v", domain.ErrFatalConfig, args[0], err)
		}
		cfg.InputDir = abs
	}
	if runOutputDir != "" {
		cfg.OutputDir = runOutputDir
	}
	if cfg.OutputDir != "" {
		abs, err := filepath.Abs(cfg.OutputDir)
		if err != nil {
			return cfg, fmt.Errorf("%w: resolving output path %s: %v", domain.ErrFatalConfig, cfg.OutputDir, err)
		}
		cfg.OutputDir = abs
	}

	cfg.Region = runRegion
	cfg.Sensor = domain.ParseSensorOption(runSensor)
	cfg.PoseCSV = domain.ParsePathOption(runPoseCSV)
	cfg.Lidar = domain.ParsePathOption(runLidar)
	cfg.Calibration = domain.ParsePathOption(runCalibration)
	if runPoseEpoch != "" {
		cfg.PoseEpoch = domain.PoseEpoch(runPoseEpoch)
	}
	if cmd.Flags().Changed("max-per-seq") {
		cfg.MaxPerSequence = runMaxPerSeq
	}
	if cmd.Flags().Changed("max-pose-gap") {
		cfg.MaxPoseGapSeconds = runMaxPoseGap
	}
	cfg.Batch = runBatch
	cfg.Verbose = verboseFlag
	cfg.Interactive = term.IsTerminal(int(os.Stdin.Fd()))
	return cfg, nil
}

// jobsFor pairs every candidate with the run-level region and sensor.
func jobsFor(candidates []domain.AcquisitionCandidate, cfg domain.RunConfig) []driving.AcquisitionJob {
	label, _ := cfg.Sensor.Label()
	jobs := make([]driving.AcquisitionJob, 0, len(candidates))
	for _, candidate := range candidates {
		jobs = append(jobs, driving.AcquisitionJob{
			Candidate: candidate,
			Region:    cfg.Region,
			Sensor:    label,
		})
	}
	return jobs
}
