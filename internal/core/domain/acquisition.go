package domain

import "time"

// AcquisitionCandidate is one input folder the scanner selected for
// processing, with its discovered sidecar files, before records exist.
type AcquisitionCandidate struct {
	// Folder is the absolute path of the acquisition folder.
	Folder string

	// Name is the folder basename, used for date/region detection.
	Name string

	// Images are the discovered image entries in deterministic path order.
	Images []ImageEntry

	// PosePath is the located pose file, "" when none.
	PosePath string

	// LidarPaths are the located point-cloud files, sorted.
	LidarPaths []string

	// CalibrationPath is the located calibration descriptor, "" when none.
	CalibrationPath string

	// FolderDate is the YYYYMMDD date embedded in the folder name, "" when
	// absent. A folder date pins the acquisition identity for all records.
	FolderDate string

	// FolderRegion is the region tag embedded in a YYYYMMDD-Region folder
	// name, "" when absent.
	FolderRegion string

	// DefaultSensor is the label detected from image metadata or filename
	// tokens, "" when nothing matched.
	DefaultSensor string
}

// Sequence is one emitted output sequence: an ordered slice of allocated
// frames sharing a sequence number. Frame indices are positional, 1-based.
type Sequence struct {
	// Number is the 1-based sequence number within the acquisition.
	Number int

	// Group is the physical sequence group the frames came from.
	Group string

	// Frames are the allocated records in order. The frame index of
	// Frames[i] is i+1, which keeps indices contiguous by construction.
	Frames []FrameRecord
}

// ID renders the sequence identifier (S + 3 digits).
func (s *Sequence) ID() string {
	return SequenceID(s.Number)
}

// Acquisition is one capture campaign after grouping and allocation,
// immutable once assembled.
type Acquisition struct {
	// Date is the YYYYMMDD date code.
	Date string

	// Region is the normalized region tag.
	Region string

	// Sensor is the resolved sensor label applied to all frames.
	Sensor string

	// SourceFolder is the input folder records came from.
	SourceFolder string

	// Sequences are the emitted sequences in order.
	Sequences []Sequence

	// PoseTrack is the associated track, nil or empty when pose-less.
	PoseTrack *PoseTrack

	// LidarPaths are point-cloud files to copy.
	LidarPaths []string

	// CalibrationPath is a calibration descriptor to copy, "" when the
	// intrinsics artifact is derived from image metadata instead.
	CalibrationPath string

	// FailedFrames are records excluded from allocation because the image
	// could not be read.
	FailedFrames []FrameRecord
}

// ID returns the acquisition identifier (YYYYMMDD-Region).
func (a *Acquisition) ID() string {
	return MakeAcquisitionID(a.Date, a.Region)
}

// FrameCount returns the number of allocated frames across all sequences.
func (a *Acquisition) FrameCount() int {
	total := 0
	for i := range a.Sequences {
		total += len(a.Sequences[i].Frames)
	}
	return total
}

// RunStatus describes how a run ended.
type RunStatus string

// Available run statuses.
const (
	// RunStatusCompleted means the run finished, possibly with per-frame
	// failures recorded in the summary.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed means the run aborted on a fatal error.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCancelled means the run stopped on context cancellation.
	RunStatusCancelled RunStatus = "cancelled"
)

// IsValid returns true if the status is recognised.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s RunStatus) String() string {
	return string(s)
}

// Clock abstracts time for deterministic tests.
type Clock func() time.Time
