package domain

import (
	"path/filepath"
	"time"
)

// ImageEntry is one image file discovered by the scanner, before metadata
// extraction.
type ImageEntry struct {
	// Path is the absolute source path.
	Path string

	// Group is the physical sequence group the image belongs to: the
	// relative subfolder under the acquisition folder, "" for images
	// directly in the acquisition root.
	Group string

	// ModTime is the filesystem modification time.
	ModTime time.Time
}

// TimeSource records where a frame's resolved capture time came from.
type TimeSource string

// Available time sources.
const (
	// TimeSourceMetadata means the image's own embedded timestamp.
	TimeSourceMetadata TimeSource = "metadata"

	// TimeSourcePose means a matched pose sample's timestamp substituted
	// for missing image metadata.
	TimeSourcePose TimeSource = "pose"

	// TimeSourceNone means no wall-clock time resolved; the frame is
	// ordered by filesystem modification time instead.
	TimeSourceNone TimeSource = "none"
)

// IsValid returns true if the time source is recognised.
func (s TimeSource) IsValid() bool {
	switch s {
	case TimeSourceMetadata, TimeSourcePose, TimeSourceNone:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s TimeSource) String() string {
	return string(s)
}

// OrderKey sorts frames within a physical sequence group. Frames with a
// resolved wall-clock time sort before frames without one; within a class
// the time (capture time or file modification time) orders, with the source
// path as the final tiebreaker for determinism.
type OrderKey struct {
	// Timed is true when Time is a resolved capture time rather than a
	// filesystem modification time.
	Timed bool

	// Time is the capture time when Timed, the file modification time
	// otherwise.
	Time time.Time

	// Path is the source path tiebreaker.
	Path string
}

// Less reports whether k orders before other.
func (k OrderKey) Less(other OrderKey) bool {
	if k.Timed != other.Timed {
		return k.Timed
	}
	if !k.Time.Equal(other.Time) {
		return k.Time.Before(other.Time)
	}
	return k.Path < other.Path
}

// GeoFix is a positional fix with optional components. Pointer fields stay
// nil when the source carried no value, so absent data is omitted rather
// than zero-filled in output artifacts.
type GeoFix struct {
	// Latitude in signed decimal degrees (WGS84).
	Latitude *float64

	// Longitude in signed decimal degrees (WGS84).
	Longitude *float64

	// Altitude in metres, ellipsoidal, negative below the reference.
	Altitude *float64

	// Heading in degrees.
	Heading *float64

	// Pitch in degrees.
	Pitch *float64

	// Roll in degrees.
	Roll *float64
}

// HasPosition returns true when both latitude and longitude are present.
func (g *GeoFix) HasPosition() bool {
	return g != nil && g.Latitude != nil && g.Longitude != nil
}

// Merge overlays non-nil fields of other onto a copy of g.
// A nil receiver with a non-nil other yields a copy of other.
func (g *GeoFix) Merge(other *GeoFix) *GeoFix {
	if other == nil {
		return g
	}
	merged := GeoFix{}
	if g != nil {
		merged = *g
	}
	if other.Latitude != nil {
		merged.Latitude = other.Latitude
	}
	if other.Longitude != nil {
		merged.Longitude = other.Longitude
	}
	if other.Altitude != nil {
		merged.Altitude = other.Altitude
	}
	if other.Heading != nil {
		merged.Heading = other.Heading
	}
	if other.Pitch != nil {
		merged.Pitch = other.Pitch
	}
	if other.Roll != nil {
		merged.Roll = other.Roll
	}
	return &merged
}

// CameraInfo describes the capturing camera, as far as image metadata
// reveals it. Used for sensor label detection and the intrinsics artifact.
type CameraInfo struct {
	// Make is the camera manufacturer.
	Make string

	// Model is the camera model name.
	Model string

	// Software is the firmware or processing software tag.
	Software string

	// SerialNumber is the camera body serial, when recorded.
	SerialNumber string

	// FocalLengthMM is the lens focal length in millimetres.
	FocalLengthMM *float64

	// FNumber is the aperture f-number.
	FNumber *float64

	// FocalLength35MM is the 35mm-equivalent focal length.
	FocalLength35MM *float64
}

// HasData returns true when at least one descriptive field beyond zero
// values is present.
func (c *CameraInfo) HasData() bool {
	if c == nil {
		return false
	}
	return c.Make != "" || c.Model != "" || c.Software != "" || c.SerialNumber != "" ||
		c.FocalLengthMM != nil || c.FNumber != nil || c.FocalLength35MM != nil
}

// ImageMetadata is the Metadata Extractor's result for one image. Every
// field is optional; absence is an expected condition, not an error.
type ImageMetadata struct {
	// CaptureTime is the embedded capture timestamp, when present and
	// parseable. Naive local time as written by the camera.
	CaptureTime *time.Time

	// CaptureTimeRaw is the original timestamp string, preserved for the
	// annotation stub.
	CaptureTimeRaw string

	// GPSTime is the satellite-clock UTC timestamp, when the image carries
	// a full GPS date+time block.
	GPSTime *time.Time

	// GPS is the embedded positional fix, when present.
	GPS *GeoFix

	// Camera describes the capturing camera, when tagged.
	Camera *CameraInfo
}

// CaptureDate resolves the YYYYMMDD date code used for acquisition
// grouping: GPS date first, then the embedded capture date, then the file
// modification time in UTC.
func (m *ImageMetadata) CaptureDate(modTime time.Time) string {
	if m != nil {
		if m.GPSTime != nil {
			return m.GPSTime.UTC().Format("20060102")
		}
		if m.CaptureTime != nil {
			return m.CaptureTime.Format("20060102")
		}
	}
	return modTime.UTC().Format("20060102")
}

// FrameRecord is one image's normalized identity after timestamp and pose
// resolution. Every discovered image yields exactly one record; unreadable
// files yield a failed record that is reported, never silently dropped.
type FrameRecord struct {
	// SourcePath is the absolute path of the original image.
	SourcePath string

	// Group is the physical sequence group (see ImageEntry.Group).
	Group string

	// ModTime is the source file's modification time.
	ModTime time.Time

	// CaptureTime is the resolved capture timestamp in canonical UTC.
	// Zero when no time resolved from either source.
	CaptureTime time.Time

	// TimeSource records where CaptureTime came from.
	TimeSource TimeSource

	// CaptureDate is the YYYYMMDD grouping date.
	CaptureDate string

	// Metadata is the raw extractor result, kept for annotations and
	// intrinsics. Nil when the file was unreadable.
	Metadata *ImageMetadata

	// Position is the final positional fix: metadata GPS overlaid with the
	// matched pose sample's fields. Nil when neither source had one.
	Position *GeoFix

	// PoseSample is the matched track sample, when one matched within the
	// configured gap.
	PoseSample *PoseSample

	// PoseGap is the |frame time - sample time| distance of the match.
	PoseGap time.Duration

	// Failed is true when the image could not be read at all. Failed
	// records are excluded from allocation and counted in the summary.
	Failed bool

	// FailReason describes the failure for the summary.
	FailReason string
}

// OriginalName returns the source basename.
func (r *FrameRecord) OriginalName() string {
	return filepath.Base(r.SourcePath)
}

// UnorderedByTime is true when the record is ordered by filesystem time
// because no wall-clock timestamp resolved.
func (r *FrameRecord) UnorderedByTime() bool {
	return r.TimeSource == TimeSourceNone
}

// OrderKey returns the record's sort key.
func (r *FrameRecord) OrderKey() OrderKey {
	if r.TimeSource == TimeSourceNone {
		return OrderKey{Timed: false, Time: r.ModTime, Path: r.SourcePath}
	}
	return OrderKey{Timed: true, Time: r.CaptureTime, Path: r.SourcePath}
}
