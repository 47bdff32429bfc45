package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Pipeline defaults. These seed RunConfig and can be overridden by the
// config file and CLI flags; nothing reads them directly at run time.
const (
	// DefaultMaxPerSequence caps frames per emitted sequence.
	DefaultMaxPerSequence = 2000

	// DefaultMaxPoseGapSeconds bounds pose-to-frame matching; 0 disables
	// the bound.
	DefaultMaxPoseGapSeconds = 5.0

	// DefaultSensorLabel is used when no explicit label is given and
	// detection finds no signal.
	DefaultSensorLabel = "CAM"
)

// RunConfig carries every knob of one pipeline run as an explicit value,
// threaded through component calls. There is no package-level mutable
// default anywhere in the pipeline.
type RunConfig struct {
	// InputDir is the absolute input root.
	InputDir string

	// OutputDir is the absolute output root. Must lie outside InputDir.
	OutputDir string

	// Region is the explicit region tag, "" to detect or prompt.
	Region string

	// Sensor selects the sensor label resolution.
	Sensor SensorOption

	// PoseCSV selects how the pose file is located.
	PoseCSV PathOption

	// Lidar selects how point-cloud files are located.
	Lidar PathOption

	// Calibration selects how a calibration descriptor is located.
	Calibration PathOption

	// PoseEpoch is the declared epoch of raw pose timestamps.
	PoseEpoch PoseEpoch

	// MaxPerSequence caps frames per emitted sequence.
	MaxPerSequence int

	// MaxPoseGapSeconds bounds pose matching; 0 means unbounded.
	MaxPoseGapSeconds float64

	// Batch forces scanning the input root for acquisition subfolders.
	Batch bool

	// Interactive allows prompting for missing region/sensor values.
	Interactive bool

	// Verbose enables debug logging.
	Verbose bool
}

// DefaultRunConfig returns a config with pipeline defaults and every
// auxiliary input set to automatic discovery.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Sensor:            AutoSensor(),
		PoseCSV:           AutoPath(),
		Lidar:             AutoPath(),
		Calibration:       AutoPath(),
		PoseEpoch:         PoseEpochGPS,
		MaxPerSequence:    DefaultMaxPerSequence,
		MaxPoseGapSeconds: DefaultMaxPoseGapSeconds,
	}
}

// MaxPoseGap returns the matching bound as a duration, 0 when unbounded.
func (c RunConfig) MaxPoseGap() time.Duration {
	if c.MaxPoseGapSeconds <= 0 {
		return 0
	}
	return time.Duration(c.MaxPoseGapSeconds * float64(time.Second))
}

// Validate checks the pure configuration constraints. Filesystem existence
// is the scanner's concern; everything here is value and path logic.
// All violations wrap ErrFatalConfig.
func (c RunConfig) Validate() error {
	if strings.TrimSpace(c.InputDir) == "" {
		return fmt.Errorf("%w: input directory is required", ErrFatalConfig)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%w: output directory is required", ErrFatalConfig)
	}
	if c.MaxPerSequence <= 0 {
		return fmt.Errorf("%w: max-per-seq must be greater than zero, got %d", ErrFatalConfig, c.MaxPerSequence)
	}
	if c.MaxPoseGapSeconds < 0 {
		return fmt.Errorf("%w: max-pose-gap cannot be negative, got %g", ErrFatalConfig, c.MaxPoseGapSeconds)
	}
	if !c.PoseEpoch.IsValid() {
		return fmt.Errorf("%w: unknown pose epoch %q", ErrFatalConfig, c.PoseEpoch)
	}
	if outputInsideInput(c.InputDir, c.OutputDir) {
		return fmt.Errorf("%w: output directory %s is inside the input folder, outputs would be re-ingested", ErrFatalConfig, c.OutputDir)
	}
	return nil
}

// outputInsideInput reports whether output lies within input, lexically.
// Both paths are expected absolute and cleaned by the CLI boundary.
func outputInsideInput(input, output string) bool {
	rel, err := filepath.Rel(filepath.Clean(input), filepath.Clean(output))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
