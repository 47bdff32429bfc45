package services

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/detect"
	"github.com/holobase-labs/seqpack-cli/internal/logger"
)

// Scanner discovers acquisition candidates under an input root: the image
// entries grouped into physical sequences, plus the sidecar files located
// through the detection rule table.
type Scanner struct {
	metadata driven.MetadataSource
	rules    *detect.Registry
}

// NewScanner creates a scanner with the given metadata source and
// detection rules.
func NewScanner(metadata driven.MetadataSource, rules *detect.Registry) *Scanner {
	return &Scanner{
		metadata: metadata,
		rules:    rules,
	}
}

// DiscoverCandidates scans the input root for acquisition folders. In
// batch mode every immediate subfolder holding images is a candidate, with
// the root itself as fallback when no subfolder qualifies; otherwise the
// root is the single candidate. Folders without images are skipped with a
// warning. A duplicate image filename across a candidate's folders is an
// error that aborts discovery.
func (s *Scanner) DiscoverCandidates(cfg domain.RunConfig) ([]domain.AcquisitionCandidate, []domain.Warning, error) {
	info, err := os.Stat(cfg.InputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: input folder %s: %v", domain.ErrFatalConfig, cfg.InputDir, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: input path %s is not a directory", domain.ErrFatalConfig, cfg.InputDir)
	}

	if cfg.Batch {
		subfolders, err := listSubfolders(cfg.InputDir)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: reading %s: %v", domain.ErrFatalConfig, cfg.InputDir, err)
		}
		var candidates []domain.AcquisitionCandidate
		var skipped []string
		for _, folder := range subfolders {
			candidate, err := s.scanCandidate(folder, cfg)
			if err != nil {
				return nil, nil, err
			}
			if candidate == nil {
				skipped = append(skipped, folder)
				continue
			}
			candidates = append(candidates, *candidate)
		}
		if len(candidates) > 0 {
			var warnings []domain.Warning
			for _, folder := range skipped {
				logger.Warn("No images found in %s, skipping.", folder)
				warnings = append(warnings, domain.Warning{
					Kind:    domain.WarningDiscovery,
					Message: fmt.Sprintf("no images found in %s, skipped", folder),
				})
			}
			return candidates, warnings, nil
		}
		// No subfolder held images; try the root itself below.
	}

	candidate, err := s.scanCandidate(cfg.InputDir, cfg)
	if err != nil {
		return nil, nil, err
	}
	if candidate == nil {
		logger.Warn("No images found in %s.", cfg.InputDir)
		warning := domain.Warning{
			Kind:    domain.WarningDiscovery,
			Message: fmt.Sprintf("no images found in %s", cfg.InputDir),
		}
		return nil, []domain.Warning{warning}, nil
	}
	return []domain.AcquisitionCandidate{*candidate}, nil, nil
}

// scanCandidate walks one acquisition folder. Returns nil when the folder
// holds no images.
func (s *Scanner) scanCandidate(folder string, cfg domain.RunConfig) (*domain.AcquisitionCandidate, error) {
	images, sidecars, err := s.walkFolder(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %v", domain.ErrFatalConfig, folder, err)
	}
	if len(images) == 0 {
		return nil, nil
	}
	if err := checkDuplicateNames(images); err != nil {
		return nil, err
	}

	name := filepath.Base(filepath.Clean(folder))
	candidate := &domain.AcquisitionCandidate{
		Folder: folder,
		Name:   name,
		Images: images,
	}

	if date, ok := domain.DateFromFolderName(name); ok {
		candidate.FolderDate = date
	}
	if region, ok := domain.RegionFromFolderName(name); ok {
		candidate.FolderRegion = region
	}

	if candidate.PosePath, err = resolvePose(cfg.PoseCSV, folder, sidecars.poses); err != nil {
		return nil, err
	}
	if candidate.LidarPaths, err = resolveLidar(cfg.Lidar, sidecars.lidar); err != nil {
		return nil, err
	}
	if candidate.CalibrationPath, err = resolveCalibration(cfg.Calibration, folder, sidecars.calibration); err != nil {
		return nil, err
	}

	candidate.DefaultSensor = s.detectSensor(images)
	logger.Debug("Candidate %s: %d image(s), pose=%q, lidar=%d, calibration=%q, default sensor=%q.",
		name, len(images), candidate.PosePath, len(candidate.LidarPaths), candidate.CalibrationPath, candidate.DefaultSensor)
	return candidate, nil
}

// sidecarFiles are the non-image files a folder walk classified.
type sidecarFiles struct {
	poses       []string
	lidar       []string
	calibration []string
}

// walkFolder collects image entries and classified sidecars in one pass.
// Files that vanish between listing and stat are skipped.
func (s *Scanner) walkFolder(folder string) ([]domain.ImageEntry, sidecarFiles, error) {
	var images []domain.ImageEntry
	var sidecars sidecarFiles
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch domain.NormalizedExt(path) {
		case ".jpg", ".jpeg":
			info, err := d.Info()
			if err != nil {
				return nil
			}
			images = append(images, domain.ImageEntry{
				Path:    path,
				Group:   groupOf(folder, path),
				ModTime: info.ModTime(),
			})
			return nil
		}
		capability, ok := s.rules.Classify(path)
		if !ok {
			return nil
		}
		switch capability {
		case detect.CapabilityPose:
			sidecars.poses = append(sidecars.poses, path)
		case detect.CapabilityPointCloud:
			sidecars.lidar = append(sidecars.lidar, path)
		case detect.CapabilityCalibration:
			sidecars.calibration = append(sidecars.calibration, path)
		}
		return nil
	})
	if err != nil {
		return nil, sidecarFiles{}, err
	}
	return images, sidecars, nil
}

// groupOf maps an image path to its physical sequence group: the relative
// directory under the acquisition folder, "" for the folder itself.
func groupOf(folder, path string) string {
	rel, err := filepath.Rel(folder, filepath.Dir(path))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// checkDuplicateNames rejects a candidate whose folders reuse an image
// filename. Renaming is positional per sequence, so two sources with the
// same basename in different groups could silently land on the same
// output name when groups merge by date.
func checkDuplicateNames(images []domain.ImageEntry) error {
	seen := make(map[string]string, len(images))
	for _, entry := range images {
		key := strings.ToLower(filepath.Base(entry.Path))
		if first, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s appears as %s and %s", domain.ErrDuplicateFrameName, filepath.Base(entry.Path), first, entry.Path)
		}
		seen[key] = entry.Path
	}
	return nil
}

// resolvePose picks the pose file per the option: explicit path verbatim,
// or the closest detected table (depth first, then lowercase path), or
// none.
func resolvePose(option domain.PathOption, folder string, detected []string) (string, error) {
	if option.IsDisabled() {
		return "", nil
	}
	if path, ok := option.Path(); ok {
		return path, nil
	}
	if len(detected) == 0 {
		return "", nil
	}
	sorted := append([]string(nil), detected...)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := pathDepth(folder, sorted[i]), pathDepth(folder, sorted[j])
		if di != dj {
			return di < dj
		}
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})
	return sorted[0], nil
}

// resolveLidar picks point-cloud files per the option. An explicit path
// may be a single file or a directory of point clouds; a missing explicit
// path or an empty explicit directory is a configuration error.
func resolveLidar(option domain.PathOption, detected []string) ([]string, error) {
	if option.IsDisabled() {
		return nil, nil
	}
	path, ok := option.Path()
	if !ok {
		return append([]string(nil), detected...), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: point-cloud path %s: %v", domain.ErrFatalConfig, path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch domain.NormalizedExt(sub) {
		case ".las", ".laz":
			files = append(files, sub)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning point-cloud folder %s: %v", domain.ErrFatalConfig, path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no point-cloud files (.las/.laz) found in %s", domain.ErrFatalConfig, path)
	}
	sort.Strings(files)
	return files, nil
}

// resolveCalibration picks the calibration descriptor per the option,
// preferring the detected file closest to the folder root.
func resolveCalibration(option domain.PathOption, folder string, detected []string) (string, error) {
	if option.IsDisabled() {
		return "", nil
	}
	if path, ok := option.Path(); ok {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: calibration path %s: %v", domain.ErrFatalConfig, path, err)
		}
		return path, nil
	}
	if len(detected) == 0 {
		return "", nil
	}
	sorted := append([]string(nil), detected...)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := pathDepth(folder, sorted[i]), pathDepth(folder, sorted[j])
		if di != dj {
			return di < dj
		}
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})
	return sorted[0], nil
}

// pathDepth counts directory levels between root and path.
func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator))
}

// detectSensor derives a default sensor label from the first image's
// camera model and from shared filename tokens. Empty when nothing
// matched; the pipeline falls back to the fixed default label.
func (s *Scanner) detectSensor(images []domain.ImageEntry) string {
	signals := detect.LabelSignals{}
	if meta, err := s.metadata.Extract(images[0].Path); err == nil && meta != nil && meta.Camera != nil {
		signals.CameraModel = meta.Camera.Model
	}
	names := make([]string, 0, len(images))
	for _, entry := range images {
		names = append(names, filepath.Base(entry.Path))
	}
	signals.ImageNames = names
	label, ok := detect.DeriveSensorLabel(signals)
	if !ok {
		return ""
	}
	return label
}

// listSubfolders returns the immediate subdirectories of root in name
// order.
func listSubfolders(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folders = append(folders, filepath.Join(root, entry.Name()))
	}
	return folders, nil
}
