package domain

import (
	"sort"
	"time"
)

// PoseSample is one (timestamp, position, orientation) record of a pose
// track, timestamp already converted to canonical UTC.
type PoseSample struct {
	// Time is the sample timestamp in canonical UTC.
	Time time.Time

	// RawSeconds is the timestamp as written in the source file, kept for
	// the annotation stub.
	RawSeconds float64

	// Fix is the positional/orientation data carried by the sample.
	Fix GeoFix
}

// PoseTrack is an ordered, immutable, deduplicated-by-timestamp series of
// pose samples for one acquisition. Never mutated after construction.
type PoseTrack struct {
	samples []PoseSample

	// SourcePath is the pose file the track was read from.
	SourcePath string

	// SkippedRows counts malformed rows dropped during parsing.
	SkippedRows int
}

// NewPoseTrack builds a track from parsed samples: sorts ascending by time
// and drops later duplicates of the same timestamp (first occurrence wins).
func NewPoseTrack(samples []PoseSample, sourcePath string, skippedRows int) *PoseTrack {
	sorted := make([]PoseSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	deduped := sorted[:0]
	for _, s := range sorted {
		if len(deduped) > 0 && deduped[len(deduped)-1].Time.Equal(s.Time) {
			continue
		}
		deduped = append(deduped, s)
	}
	return &PoseTrack{
		samples:     deduped,
		SourcePath:  sourcePath,
		SkippedRows: skippedRows,
	}
}

// Len returns the number of samples.
func (t *PoseTrack) Len() int {
	if t == nil {
		return 0
	}
	return len(t.samples)
}

// IsEmpty returns true for a nil or sample-less track.
func (t *PoseTrack) IsEmpty() bool {
	return t.Len() == 0
}

// Samples returns the ordered samples. Callers must not mutate the slice.
func (t *PoseTrack) Samples() []PoseSample {
	if t == nil {
		return nil
	}
	return t.samples
}

// Nearest returns the sample closest in time to at, with the absolute time
// distance. When two samples are equidistant the earlier one is chosen.
// Returns false for an empty track.
func (t *PoseTrack) Nearest(at time.Time) (PoseSample, time.Duration, bool) {
	if t.IsEmpty() {
		return PoseSample{}, 0, false
	}
	i := sort.Search(len(t.samples), func(i int) bool {
		return !t.samples[i].Time.Before(at)
	})
	if i == 0 {
		return t.samples[0], t.samples[0].Time.Sub(at).Abs(), true
	}
	if i == len(t.samples) {
		last := t.samples[len(t.samples)-1]
		return last, at.Sub(last.Time).Abs(), true
	}
	before := t.samples[i-1]
	after := t.samples[i]
	gapBefore := at.Sub(before.Time)
	gapAfter := after.Time.Sub(at)
	// Equidistant samples resolve to the earlier one.
	if gapBefore <= gapAfter {
		return before, gapBefore, true
	}
	return after, gapAfter, true
}

// NearestWithin is Nearest bounded by a maximum gap; maxGap <= 0 means
// unbounded. Returns false when the closest sample is farther than the gap.
func (t *PoseTrack) NearestWithin(at time.Time, maxGap time.Duration) (PoseSample, time.Duration, bool) {
	sample, gap, ok := t.Nearest(at)
	if !ok {
		return PoseSample{}, 0, false
	}
	if maxGap > 0 && gap > maxGap {
		return PoseSample{}, 0, false
	}
	return sample, gap, true
}
