package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeToken tests identifier cleaning
func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "clean token passes through", raw: "HSN", expected: "HSN"},
		{name: "whitespace is trimmed", raw: "  Nyon  ", expected: "Nyon"},
		{name: "unsafe characters are stripped", raw: "Cam Front (v2)", expected: "CamFrontv2"},
		{name: "underscores and dashes survive", raw: "Cam_Front-2", expected: "Cam_Front-2"},
		{name: "empty input fails", raw: "", wantErr: true},
		{name: "only unsafe characters fails", raw: "(((", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeToken(tt.raw, "Region")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrFatalConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestIdentifierRendering tests the naming grammar
func TestIdentifierRendering(t *testing.T) {
	assert.Equal(t, "20250423-HSN", MakeAcquisitionID("20250423", "HSN"))
	assert.Equal(t, "S001", SequenceID(1))
	assert.Equal(t, "S042", SequenceID(42))
	assert.Equal(t, "000001", FrameIndexID(1))
	assert.Equal(t, "012345", FrameIndexID(12345))
	assert.Equal(t, "20250423-HSN_S001_CamFront_000007",
		FrameBaseName("20250423-HSN", "S001", "CamFront", 7))
	assert.Equal(t, "S003_trajectory.csv", TrajectoryCSVName("S003"))
	assert.Equal(t, "S003_trajectory.geojson", TrajectoryGeoJSONName("S003"))
}

// TestDateFromFolderName tests embedded date extraction
func TestDateFromFolderName(t *testing.T) {
	tests := []struct {
		name     string
		folder   string
		expected string
		found    bool
	}{
		{name: "plain date", folder: "20250423", expected: "20250423", found: true},
		{name: "date with region suffix", folder: "20250423-HSN", expected: "20250423", found: true},
		{name: "date embedded mid-name", folder: "survey_20250423_north", expected: "20250423", found: true},
		{name: "invalid calendar date is skipped", folder: "20251345-x", found: false},
		{name: "invalid date then valid date", folder: "99999999_20240101", expected: "20240101", found: true},
		{name: "no digits", folder: "fieldwork", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DateFromFolderName(tt.folder)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestRegionFromFolderName tests region tag extraction
func TestRegionFromFolderName(t *testing.T) {
	tests := []struct {
		name     string
		folder   string
		expected string
		found    bool
	}{
		{name: "dash separated", folder: "20250423-HSN", expected: "HSN", found: true},
		{name: "underscore separated", folder: "20250423_Nyon", expected: "Nyon", found: true},
		{name: "date only", folder: "20250423", found: false},
		{name: "no date", folder: "HSN", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RegionFromFolderName(tt.folder)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestNormalizedExt tests extension normalization
func TestNormalizedExt(t *testing.T) {
	assert.Equal(t, ".jpg", NormalizedExt("/data/IMG_0001.JPG"))
	assert.Equal(t, ".jpeg", NormalizedExt("a.jpeg"))
	assert.Equal(t, "", NormalizedExt("noext"))
}
