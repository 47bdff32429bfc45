package domain

import "time"

// WarningKind classifies non-fatal problems accumulated during a run.
type WarningKind string

// Available warning kinds.
const (
	// WarningDiscovery marks an acquisition skipped for lack of images.
	WarningDiscovery WarningKind = "discovery"

	// WarningPoseDegraded marks a pose file that failed to parse.
	WarningPoseDegraded WarningKind = "pose_degraded"

	// WarningUnorderedByTime marks frames ordered by filesystem time.
	WarningUnorderedByTime WarningKind = "unordered_by_time"

	// WarningFrameWrite marks a per-frame copy/annotation failure.
	WarningFrameWrite WarningKind = "frame_write"

	// WarningFrameRead marks an image that could not be read.
	WarningFrameRead WarningKind = "frame_read"

	// WarningPointCloud marks a point-cloud file that could not be probed.
	WarningPointCloud WarningKind = "point_cloud"
)

// String returns the string representation.
func (k WarningKind) String() string {
	return string(k)
}

// Warning is one accumulated diagnostic.
type Warning struct {
	// Kind classifies the warning.
	Kind WarningKind

	// Message is the human-readable detail.
	Message string
}

// PoseMatchStats summarizes the time distance between frames and their
// matched pose samples for one acquisition.
type PoseMatchStats struct {
	// Matched counts frames with a pose sample.
	Matched int

	// MeanGapSeconds is the mean |frame - sample| distance.
	MeanGapSeconds float64

	// MaxGapSeconds is the largest matched distance.
	MaxGapSeconds float64
}

// AcquisitionReport is the per-acquisition row of the run summary.
type AcquisitionReport struct {
	// AcquisitionID is the YYYYMMDD-Region identifier.
	AcquisitionID string

	// SourceFolder is the input folder.
	SourceFolder string

	// FramesProcessed counts frames copied with annotations.
	FramesProcessed int

	// FramesFailed counts unreadable images plus write failures.
	FramesFailed int

	// SequencesEmitted counts output sequences.
	SequencesEmitted int

	// LidarCopied counts copied point-cloud files.
	LidarCopied int

	// LidarPoints totals the point counts of probed LAS files.
	LidarPoints int64

	// PoseRowsSkipped counts malformed pose rows dropped at parse.
	PoseRowsSkipped int

	// UnorderedByTime counts frames ordered by filesystem time.
	UnorderedByTime int

	// PoseStats summarizes pose matching, zero-valued when pose-less.
	PoseStats PoseMatchStats

	// Warnings are the accumulated diagnostics.
	Warnings []Warning
}

// Warn appends a warning.
func (r *AcquisitionReport) Warn(kind WarningKind, message string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Message: message})
}

// RunSummary is the complete result of one run, printed as the final table
// and persisted to the run ledger.
type RunSummary struct {
	// RunID is the unique run identifier.
	RunID string

	// InputDir and OutputDir are the resolved roots.
	InputDir  string
	OutputDir string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Status records how the run ended.
	Status RunStatus

	// Warnings holds run-level diagnostics not tied to one acquisition,
	// such as folders skipped at discovery.
	Warnings []Warning

	// Reports holds one row per acquisition in processing order.
	Reports []AcquisitionReport
}

// TotalProcessed sums processed frames across acquisitions.
func (s *RunSummary) TotalProcessed() int {
	total := 0
	for i := range s.Reports {
		total += s.Reports[i].FramesProcessed
	}
	return total
}

// TotalFailed sums failed frames across acquisitions.
func (s *RunSummary) TotalFailed() int {
	total := 0
	for i := range s.Reports {
		total += s.Reports[i].FramesFailed
	}
	return total
}

// TotalWarnings sums run-level and per-acquisition warnings.
func (s *RunSummary) TotalWarnings() int {
	total := len(s.Warnings)
	for i := range s.Reports {
		total += len(s.Reports[i].Warnings)
	}
	return total
}

// TotalLidar sums copied point-cloud files across acquisitions.
func (s *RunSummary) TotalLidar() int {
	total := 0
	for i := range s.Reports {
		total += s.Reports[i].LidarCopied
	}
	return total
}
