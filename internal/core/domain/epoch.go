package domain

import (
	"math"
	"time"
)

// Canonical time is Unix seconds, UTC. Pose tracks declare which epoch their
// timestamps use and are converted once, at parse time.
const (
	// gpsUnixOffsetSeconds is the Unix timestamp of the GPS epoch start,
	// 1980-01-06T00:00:00Z.
	gpsUnixOffsetSeconds = 315964800

	// gpsLeapSeconds is the fixed GPS-to-UTC leap-second offset. GPS time
	// runs ahead of UTC; a constant is used rather than a leap-second table.
	gpsLeapSeconds = 18
)

// PoseEpoch identifies the time epoch of raw pose track timestamps.
type PoseEpoch string

// Available pose epochs.
const (
	// PoseEpochGPS counts seconds since the GPS epoch (1980-01-06).
	PoseEpochGPS PoseEpoch = "gps"

	// PoseEpochUnix counts seconds since the Unix epoch (1970-01-01).
	PoseEpochUnix PoseEpoch = "unix"
)

// IsValid returns true if the epoch is recognised.
func (e PoseEpoch) IsValid() bool {
	switch e {
	case PoseEpochGPS, PoseEpochUnix:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (e PoseEpoch) String() string {
	return string(e)
}

// Description returns a human-readable description of the epoch.
func (e PoseEpoch) Description() string {
	switch e {
	case PoseEpochGPS:
		return "GPS seconds (since 1980-01-06)"
	case PoseEpochUnix:
		return "Unix seconds (since 1970-01-01)"
	default:
		return "Unknown"
	}
}

// ToUTC converts raw seconds in this epoch to canonical UTC time.
// GPS seconds are shifted by the fixed epoch offset minus the constant
// leap-second adjustment, so gps 0 maps to Unix 315964782.
func (e PoseEpoch) ToUTC(seconds float64) time.Time {
	if e == PoseEpochGPS {
		seconds += gpsUnixOffsetSeconds - gpsLeapSeconds
	}
	whole := math.Floor(seconds)
	nanos := (seconds - whole) * float64(time.Second)
	return time.Unix(int64(whole), int64(nanos)).UTC()
}

// AllPoseEpochs returns all available pose epochs.
func AllPoseEpochs() []PoseEpoch {
	return []PoseEpoch{PoseEpochGPS, PoseEpochUnix}
}
