package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/detect"
)

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// poseCSV is a minimal table the pose detection rule accepts.
const poseCSV = "gps_seconds,latitude,longitude\n100,52.0,5.0\n"

func newTestScanner(metas map[string]*domain.ImageMetadata) *Scanner {
	return NewScanner(&mockMetadataSource{metas: metas}, detect.DefaultRegistry())
}

func scanConfig(input string) domain.RunConfig {
	cfg := domain.DefaultRunConfig()
	cfg.InputDir = input
	cfg.OutputDir = filepath.Join(input, "..", "out")
	return cfg
}

// TestScanner_SingleFolder verifies a full candidate: images grouped by
// subfolder, sidecars located, date/region lifted from the folder name
// and the default sensor taken from the first image's camera model.
func TestScanner_SingleFolder(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "20250423-HSN")
	writeFile(t, filepath.Join(input, "a.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "b.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "track01", "c.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "poses.csv"), poseCSV)
	writeFile(t, filepath.Join(input, "cloud.las"), "las")
	writeFile(t, filepath.Join(input, "calibration.json"), "{}")

	scanner := newTestScanner(map[string]*domain.ImageMetadata{
		"a.jpg": {Camera: &domain.CameraInfo{Model: "GoPro HERO12"}},
	})
	candidates, warnings, err := scanner.DiscoverCandidates(scanConfig(input))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Empty(t, warnings)

	candidate := candidates[0]
	assert.Equal(t, input, candidate.Folder)
	assert.Equal(t, "20250423-HSN", candidate.Name)
	assert.Equal(t, "20250423", candidate.FolderDate)
	assert.Equal(t, "HSN", candidate.FolderRegion)
	assert.Equal(t, "GoProHERO12", candidate.DefaultSensor)
	assert.Equal(t, filepath.Join(input, "poses.csv"), candidate.PosePath)
	assert.Equal(t, []string{filepath.Join(input, "cloud.las")}, candidate.LidarPaths)
	assert.Equal(t, filepath.Join(input, "calibration.json"), candidate.CalibrationPath)

	require.Len(t, candidate.Images, 3)
	assert.Equal(t, "", candidate.Images[0].Group)
	assert.Equal(t, "", candidate.Images[1].Group)
	assert.Equal(t, "track01", candidate.Images[2].Group)
}

// TestScanner_BatchMode verifies that each image-holding subfolder becomes
// a candidate and imageless subfolders are skipped with a warning.
func TestScanner_BatchMode(t *testing.T) {
	input := t.TempDir()
	writeFile(t, filepath.Join(input, "20250101-AAA", "a.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "20250102-BBB", "b.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "notes", "readme.txt"), "text")

	cfg := scanConfig(input)
	cfg.Batch = true
	candidates, warnings, err := newTestScanner(nil).DiscoverCandidates(cfg)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "20250101-AAA", candidates[0].Name)
	assert.Equal(t, "20250102-BBB", candidates[1].Name)

	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarningDiscovery, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "notes")
}

// TestScanner_BatchFallsBackToRoot verifies that a batch root whose
// subfolders hold no images is treated as a single acquisition when the
// root itself does, without noise about the auxiliary subfolders.
func TestScanner_BatchFallsBackToRoot(t *testing.T) {
	input := t.TempDir()
	writeFile(t, filepath.Join(input, "a.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "docs", "readme.txt"), "text")

	cfg := scanConfig(input)
	cfg.Batch = true
	candidates, warnings, err := newTestScanner(nil).DiscoverCandidates(cfg)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, input, candidates[0].Folder)
	assert.Empty(t, warnings)
}

// TestScanner_NoImages verifies that an imageless root yields no
// candidates and a discovery warning instead of an error.
func TestScanner_NoImages(t *testing.T) {
	input := t.TempDir()
	writeFile(t, filepath.Join(input, "readme.txt"), "text")

	candidates, warnings, err := newTestScanner(nil).DiscoverCandidates(scanConfig(input))
	require.NoError(t, err)
	assert.Empty(t, candidates)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarningDiscovery, warnings[0].Kind)
}

// TestScanner_MissingInputIsFatal verifies the input root must exist.
func TestScanner_MissingInputIsFatal(t *testing.T) {
	cfg := scanConfig(filepath.Join(t.TempDir(), "gone"))
	_, _, err := newTestScanner(nil).DiscoverCandidates(cfg)
	assert.ErrorIs(t, err, domain.ErrFatalConfig)
}

// TestScanner_DuplicateImageNameIsFatal pins the duplicate-filename
// behavior: the same basename in two sequence folders aborts discovery
// naming both paths, rather than silently overwriting output frames.
func TestScanner_DuplicateImageNameIsFatal(t *testing.T) {
	input := t.TempDir()
	first := writeFile(t, filepath.Join(input, "front", "IMG_0001.jpg"), "jpg")
	second := writeFile(t, filepath.Join(input, "rear", "IMG_0001.JPG"), "jpg")

	candidates, _, err := newTestScanner(nil).DiscoverCandidates(scanConfig(input))
	require.ErrorIs(t, err, domain.ErrDuplicateFrameName)
	assert.Contains(t, err.Error(), first)
	assert.Contains(t, err.Error(), second)
	assert.Nil(t, candidates)
}

// TestScanner_TrajectoryExportsNotPose verifies that previously emitted
// trajectory files are never picked up as pose input on a rerun.
func TestScanner_TrajectoryExportsNotPose(t *testing.T) {
	input := t.TempDir()
	writeFile(t, filepath.Join(input, "a.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "S001_trajectory.csv"), poseCSV)

	candidates, _, err := newTestScanner(nil).DiscoverCandidates(scanConfig(input))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Empty(t, candidates[0].PosePath)

	real := writeFile(t, filepath.Join(input, "track.csv"), poseCSV)
	candidates, _, err = newTestScanner(nil).DiscoverCandidates(scanConfig(input))
	require.NoError(t, err)
	assert.Equal(t, real, candidates[0].PosePath)
}

// TestScanner_PoseDiscoveryOrder verifies the closest table wins: depth
// first, then case-insensitive path order.
func TestScanner_PoseDiscoveryOrder(t *testing.T) {
	input := t.TempDir()
	writeFile(t, filepath.Join(input, "a.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "deep", "nested.csv"), poseCSV)
	shallow := writeFile(t, filepath.Join(input, "zebra.csv"), poseCSV)

	candidates, _, err := newTestScanner(nil).DiscoverCandidates(scanConfig(input))
	require.NoError(t, err)
	assert.Equal(t, shallow, candidates[0].PosePath)

	tied := writeFile(t, filepath.Join(input, "Alpha.csv"), poseCSV)
	candidates, _, err = newTestScanner(nil).DiscoverCandidates(scanConfig(input))
	require.NoError(t, err)
	assert.Equal(t, tied, candidates[0].PosePath)
}

// TestScanner_PathOptions verifies explicit and disabled sidecar options.
func TestScanner_PathOptions(t *testing.T) {
	input := t.TempDir()
	writeFile(t, filepath.Join(input, "a.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "poses.csv"), poseCSV)

	t.Run("pose disabled", func(t *testing.T) {
		cfg := scanConfig(input)
		cfg.PoseCSV = domain.NoPath()
		candidates, _, err := newTestScanner(nil).DiscoverCandidates(cfg)
		require.NoError(t, err)
		assert.Empty(t, candidates[0].PosePath)
	})

	t.Run("pose explicit is taken verbatim", func(t *testing.T) {
		cfg := scanConfig(input)
		cfg.PoseCSV = domain.ExplicitPath(filepath.Join(input, "elsewhere.csv"))
		candidates, _, err := newTestScanner(nil).DiscoverCandidates(cfg)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(input, "elsewhere.csv"), candidates[0].PosePath)
	})

	t.Run("lidar explicit file", func(t *testing.T) {
		las := writeFile(t, filepath.Join(input, "clouds", "scan.las"), "las")
		cfg := scanConfig(input)
		cfg.Lidar = domain.ExplicitPath(las)
		candidates, _, err := newTestScanner(nil).DiscoverCandidates(cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{las}, candidates[0].LidarPaths)
	})

	t.Run("lidar explicit directory", func(t *testing.T) {
		dir := filepath.Join(input, "lidardir")
		b := writeFile(t, filepath.Join(dir, "b.laz"), "laz")
		a := writeFile(t, filepath.Join(dir, "a.las"), "las")
		cfg := scanConfig(input)
		cfg.Lidar = domain.ExplicitPath(dir)
		candidates, _, err := newTestScanner(nil).DiscoverCandidates(cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, candidates[0].LidarPaths)
	})

	t.Run("lidar explicit missing is fatal", func(t *testing.T) {
		cfg := scanConfig(input)
		cfg.Lidar = domain.ExplicitPath(filepath.Join(input, "nope.las"))
		_, _, err := newTestScanner(nil).DiscoverCandidates(cfg)
		assert.ErrorIs(t, err, domain.ErrFatalConfig)
	})

	t.Run("lidar explicit empty directory is fatal", func(t *testing.T) {
		dir := filepath.Join(input, "empty")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		cfg := scanConfig(input)
		cfg.Lidar = domain.ExplicitPath(dir)
		_, _, err := newTestScanner(nil).DiscoverCandidates(cfg)
		assert.ErrorIs(t, err, domain.ErrFatalConfig)
	})

	t.Run("calibration explicit missing is fatal", func(t *testing.T) {
		cfg := scanConfig(input)
		cfg.Calibration = domain.ExplicitPath(filepath.Join(input, "nope.json"))
		_, _, err := newTestScanner(nil).DiscoverCandidates(cfg)
		assert.ErrorIs(t, err, domain.ErrFatalConfig)
	})
}

// TestScanner_SensorFromFilenames verifies the filename prefix fallback
// when no camera model is available.
func TestScanner_SensorFromFilenames(t *testing.T) {
	input := t.TempDir()
	writeFile(t, filepath.Join(input, "IMG_0001.jpg"), "jpg")
	writeFile(t, filepath.Join(input, "IMG_0002.jpg"), "jpg")

	candidates, _, err := newTestScanner(nil).DiscoverCandidates(scanConfig(input))
	require.NoError(t, err)
	assert.Equal(t, "IMG", candidates[0].DefaultSensor)
}
