package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Canonical output tree folder names, fixed by the layout contract.
const (
	ImagesDirName      = "01_images"
	PosesDirName       = "02_poses"
	CalibrationDirName = "03_calibration"
	AnnotationsDirName = "04_annotations"
	PointCloudsDirName = "06_point_clouds"

	CoordinateSystemsFileName = "coordinate_systems.json"
	IntrinsicsFileName        = "intrinsics.json"
)

var (
	tokenStripPattern = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	folderDatePattern = regexp.MustCompile(`\d{8}`)
)

// NormalizeToken strips characters that are not safe in identifiers.
// Returns the cleaned token, or an error when nothing survives cleaning.
func NormalizeToken(raw, label string) (string, error) {
	cleaned := tokenStripPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", ErrFatalConfig, label)
	}
	return cleaned, nil
}

// MakeAcquisitionID joins a YYYYMMDD date and a normalized region tag.
func MakeAcquisitionID(date, region string) string {
	return date + "-" + region
}

// SequenceID renders a 1-based sequence number as S + 3 digits.
func SequenceID(n int) string {
	return fmt.Sprintf("S%03d", n)
}

// FrameIndexID renders a 1-based frame index zero-padded to 6 digits.
func FrameIndexID(n int) string {
	return fmt.Sprintf("%06d", n)
}

// FrameBaseName renders the canonical frame name without extension:
// <AcquisitionID>_<SeqID>_<SensorID>_<FrameIndex>.
func FrameBaseName(acquisitionID, sequenceID, sensor string, frameIndex int) string {
	return fmt.Sprintf("%s_%s_%s_%s", acquisitionID, sequenceID, sensor, FrameIndexID(frameIndex))
}

// TrajectoryCSVName returns the per-sequence trajectory CSV filename.
func TrajectoryCSVName(sequenceID string) string {
	return sequenceID + "_trajectory.csv"
}

// TrajectoryGeoJSONName returns the per-sequence trajectory GeoJSON filename.
func TrajectoryGeoJSONName(sequenceID string) string {
	return sequenceID + "_trajectory.geojson"
}

// DateFromFolderName extracts the first valid YYYYMMDD date embedded in a
// folder name, if any.
func DateFromFolderName(name string) (string, bool) {
	for _, candidate := range folderDatePattern.FindAllString(name, -1) {
		if _, err := time.Parse("20060102", candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// RegionFromFolderName extracts a region tag from a YYYYMMDD-Region style
// folder name: the part after the date separator, cleaned of unsafe
// characters. Returns false when the name carries no usable region.
func RegionFromFolderName(name string) (string, bool) {
	date, ok := DateFromFolderName(name)
	if !ok {
		return "", false
	}
	idx := strings.Index(name, date)
	rest := strings.TrimLeft(name[idx+len(date):], "-_ ")
	cleaned := tokenStripPattern.ReplaceAllString(rest, "")
	if cleaned == "" {
		return "", false
	}
	return cleaned, true
}

// NormalizedExt returns the lowercased extension of a path, dot included.
func NormalizedExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
