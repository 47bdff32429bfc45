package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOrderKey_Less tests frame ordering
func TestOrderKey_Less(t *testing.T) {
	base := time.Date(2025, 4, 23, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		a, b     OrderKey
		expected bool
	}{
		{
			name:     "earlier time sorts first",
			a:        OrderKey{Timed: true, Time: base, Path: "a"},
			b:        OrderKey{Timed: true, Time: base.Add(time.Second), Path: "a"},
			expected: true,
		},
		{
			name:     "timed sorts before untimed",
			a:        OrderKey{Timed: true, Time: base.Add(time.Hour), Path: "z"},
			b:        OrderKey{Timed: false, Time: base, Path: "a"},
			expected: true,
		},
		{
			name:     "equal times break the tie by path",
			a:        OrderKey{Timed: true, Time: base, Path: "a"},
			b:        OrderKey{Timed: true, Time: base, Path: "b"},
			expected: true,
		},
		{
			name:     "identical keys are not less",
			a:        OrderKey{Timed: true, Time: base, Path: "a"},
			b:        OrderKey{Timed: true, Time: base, Path: "a"},
			expected: false,
		},
		{
			name:     "untimed order by modification time",
			a:        OrderKey{Timed: false, Time: base, Path: "b"},
			b:        OrderKey{Timed: false, Time: base.Add(time.Minute), Path: "a"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Less(tt.b))
		})
	}
}

// TestGeoFix_Merge tests field-by-field override
func TestGeoFix_Merge(t *testing.T) {
	lat, lon := 46.5, 6.6
	altExif, altTrack := 372.0, 374.5
	heading := 120.0

	exif := &GeoFix{Latitude: &lat, Longitude: &lon, Altitude: &altExif}
	track := &GeoFix{Altitude: &altTrack, Heading: &heading}

	merged := exif.Merge(track)
	require.NotNil(t, merged)
	assert.Equal(t, 46.5, *merged.Latitude)
	assert.Equal(t, 6.6, *merged.Longitude)
	assert.Equal(t, 374.5, *merged.Altitude, "track altitude overrides")
	assert.Equal(t, 120.0, *merged.Heading)

	// Originals are untouched.
	assert.Equal(t, 372.0, *exif.Altitude)

	t.Run("nil receiver copies the other fix", func(t *testing.T) {
		var none *GeoFix
		merged := none.Merge(track)
		require.NotNil(t, merged)
		assert.Equal(t, 374.5, *merged.Altitude)
	})

	t.Run("nil other returns the receiver", func(t *testing.T) {
		assert.Equal(t, exif, exif.Merge(nil))
	})
}

// TestImageMetadata_CaptureDate tests the grouping date precedence
func TestImageMetadata_CaptureDate(t *testing.T) {
	modTime := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	gpsTime := time.Date(2025, 4, 23, 23, 59, 0, 0, time.UTC)
	exifTime := time.Date(2025, 4, 24, 0, 12, 0, 0, time.UTC)

	t.Run("gps date wins", func(t *testing.T) {
		meta := &ImageMetadata{GPSTime: &gpsTime, CaptureTime: &exifTime}
		assert.Equal(t, "20250423", meta.CaptureDate(modTime))
	})

	t.Run("capture time when no gps", func(t *testing.T) {
		meta := &ImageMetadata{CaptureTime: &exifTime}
		assert.Equal(t, "20250424", meta.CaptureDate(modTime))
	})

	t.Run("modification time when metadata is empty", func(t *testing.T) {
		assert.Equal(t, "20250501", (&ImageMetadata{}).CaptureDate(modTime))
		var none *ImageMetadata
		assert.Equal(t, "20250501", none.CaptureDate(modTime))
	})
}

// TestFrameRecord_OrderKey tests key derivation from the time source
func TestFrameRecord_OrderKey(t *testing.T) {
	capture := time.Date(2025, 4, 23, 8, 0, 0, 0, time.UTC)
	mod := time.Date(2025, 4, 23, 9, 0, 0, 0, time.UTC)

	timed := FrameRecord{SourcePath: "/in/a.jpg", CaptureTime: capture, TimeSource: TimeSourceMetadata, ModTime: mod}
	key := timed.OrderKey()
	assert.True(t, key.Timed)
	assert.True(t, key.Time.Equal(capture))
	assert.False(t, timed.UnorderedByTime())

	untimed := FrameRecord{SourcePath: "/in/b.jpg", TimeSource: TimeSourceNone, ModTime: mod}
	key = untimed.OrderKey()
	assert.False(t, key.Timed)
	assert.True(t, key.Time.Equal(mod))
	assert.True(t, untimed.UnorderedByTime())
}

// TestAcquisition_ID tests identifier assembly
func TestAcquisition_ID(t *testing.T) {
	acq := Acquisition{Date: "20250423", Region: "HSN"}
	assert.Equal(t, "20250423-HSN", acq.ID())

	acq.Sequences = []Sequence{
		{Number: 1, Frames: make([]FrameRecord, 3)},
		{Number: 2, Frames: make([]FrameRecord, 2)},
	}
	assert.Equal(t, 5, acq.FrameCount())
	assert.Equal(t, "S002", acq.Sequences[1].ID())
}
