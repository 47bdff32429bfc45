package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildGeoJSONTrack_NeedsTwoPositions returns nil below the two
// positioned rows a line string needs.
func TestBuildGeoJSONTrack_NeedsTwoPositions(t *testing.T) {
	rows := []trajectoryRow{
		{FrameIndex: 1, Latitude: floatPtr(52.1), Longitude: floatPtr(5.3)},
		{FrameIndex: 2},
	}
	assert.Nil(t, buildGeoJSONTrack(rows, "20250423-HSN", "S001", "CAM"))
	assert.Nil(t, buildGeoJSONTrack(nil, "20250423-HSN", "S001", "CAM"))
}

// TestBuildGeoJSONTrack_MixedAltitude drops the altitude dimension unless
// every positioned row carries one.
func TestBuildGeoJSONTrack_MixedAltitude(t *testing.T) {
	rows := []trajectoryRow{
		{FrameIndex: 1, Latitude: floatPtr(52.1), Longitude: floatPtr(5.3), Altitude: floatPtr(40)},
		{FrameIndex: 2, Latitude: floatPtr(52.2), Longitude: floatPtr(5.4)},
	}
	track := buildGeoJSONTrack(rows, "20250423-HSN", "S001", "CAM")
	require.NotNil(t, track)
	coordinates := track.Features[0].Geometry.Coordinates
	require.Len(t, coordinates, 2)
	assert.Len(t, coordinates[0], 2)
	assert.Len(t, coordinates[1], 2)
	assert.Empty(t, track.Features[0].Properties.AltitudeUnits)
}

// TestBuildGeoJSONTrack_TrackLength sums great-circle distances between
// consecutive positions.
func TestBuildGeoJSONTrack_TrackLength(t *testing.T) {
	// Roughly one degree of latitude, about 111 km.
	rows := []trajectoryRow{
		{FrameIndex: 1, Latitude: floatPtr(52.0), Longitude: floatPtr(5.0)},
		{FrameIndex: 2, Latitude: floatPtr(53.0), Longitude: floatPtr(5.0)},
	}
	track := buildGeoJSONTrack(rows, "20250423-HSN", "S001", "CAM")
	require.NotNil(t, track)
	length := track.Features[0].Properties.TrackLengthM
	assert.InDelta(t, 111_000, length, 1_000)
}

// TestTrajectoryRow_HasPoseData treats identity-only rows as empty.
func TestTrajectoryRow_HasPoseData(t *testing.T) {
	assert.False(t, trajectoryRow{FrameIndex: 1, ImageName: "a.jpg"}.hasPoseData())
	assert.True(t, trajectoryRow{FrameIndex: 1, Timestamp: "2025-04-23T10:11:12Z"}.hasPoseData())
	assert.True(t, trajectoryRow{FrameIndex: 1, Heading: floatPtr(10)}.hasPoseData())
}
