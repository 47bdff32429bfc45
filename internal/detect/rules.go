package detect

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/holobase-labs/seqpack-cli/internal/posetrack"
)

// Trajectory CSVs written by earlier runs carry the same columns as pose
// input and must never be picked up again.
var trajectoryExportPattern = regexp.MustCompile(`(?i)^s\d{3}_trajectory\.csv$`)

// DefaultRegistry returns the standard detection table. Evaluation order:
//
//  1. trajectory-export: excludes S###_trajectory.csv outputs of earlier
//     runs before the pose rule can see them.
//  2. pose-table: CSV files whose header resolves a timestamp column.
//  3. point-cloud: .las and .laz files.
//  4. calibration: JSON files named for calibration or intrinsics.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Rule{
			Name:     "trajectory-export",
			Evaluate: evaluateTrajectoryExport,
		},
		Rule{
			Name:       "pose-table",
			Capability: CapabilityPose,
			Evaluate:   evaluatePoseTable,
		},
		Rule{
			Name:       "point-cloud",
			Capability: CapabilityPointCloud,
			Evaluate:   evaluatePointCloud,
		},
		Rule{
			Name:       "calibration",
			Capability: CapabilityCalibration,
			Evaluate:   evaluateCalibration,
		},
	)
}

func evaluateTrajectoryExport(path string) Verdict {
	if trajectoryExportPattern.MatchString(filepath.Base(path)) {
		return VerdictExclude
	}
	return VerdictSkip
}

func evaluatePoseTable(path string) Verdict {
	if ext(path) != ".csv" {
		return VerdictSkip
	}
	header, err := posetrack.HeaderFields(path)
	if err != nil {
		return VerdictSkip
	}
	if posetrack.HasTimestampColumn(header) {
		return VerdictMatch
	}
	return VerdictSkip
}

func evaluatePointCloud(path string) Verdict {
	switch ext(path) {
	case ".las", ".laz":
		return VerdictMatch
	default:
		return VerdictSkip
	}
}

func evaluateCalibration(path string) Verdict {
	if ext(path) != ".json" {
		return VerdictSkip
	}
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if strings.Contains(stem, "calib") || strings.Contains(stem, "intrinsics") {
		return VerdictMatch
	}
	return VerdictSkip
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
