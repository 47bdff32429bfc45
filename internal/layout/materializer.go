// Package layout writes allocated acquisitions into the canonical output
// tree.
//
// All side effects are confined to the output root; sources are copied,
// never moved, and copies preserve the original modification time. A
// failure on one frame is recorded on the report and processing continues
// with the next frame.
package layout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/logger"
)

// Ensure Materializer implements the OutputWriter interface.
var _ driven.OutputWriter = (*Materializer)(nil)

// Materializer writes the canonical tree for allocated acquisitions.
type Materializer struct{}

// NewMaterializer creates an output materializer.
func NewMaterializer() *Materializer {
	return &Materializer{}
}

// WriteAcquisition writes one acquisition under outputDir, accumulating
// per-frame results on the report. Returns an error only when the output
// tree itself cannot be created; per-frame failures never abort.
func (m *Materializer) WriteAcquisition(acq *domain.Acquisition, outputDir string, report *domain.AcquisitionReport) error {
	acquisitionID := acq.ID()
	root := filepath.Join(outputDir, acquisitionID)
	imagesRoot := filepath.Join(root, domain.ImagesDirName)
	posesRoot := filepath.Join(root, domain.PosesDirName)
	calibrationRoot := filepath.Join(root, domain.CalibrationDirName)
	annotationsRoot := filepath.Join(root, domain.AnnotationsDirName)
	for _, dir := range []string{imagesRoot, posesRoot, calibrationRoot, annotationsRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", domain.ErrFrameWrite, dir, err)
		}
	}

	if payload := buildCoordinateSystems(acq); payload != nil {
		if err := writeJSON(filepath.Join(posesRoot, domain.CoordinateSystemsFileName), payload); err != nil {
			report.Warn(domain.WarningFrameWrite, fmt.Sprintf("coordinate systems: %v", err))
		}
	}
	m.writeIntrinsics(acq, calibrationRoot, report)

	for i := range acq.Sequences {
		m.writeSequence(acq, &acq.Sequences[i], root, posesRoot, report)
	}
	report.SequencesEmitted = len(acq.Sequences)

	m.copyLidar(acq, root, report)
	return nil
}

// writeSequence copies the frames of one sequence and emits its trajectory
// artifacts when any frame carried pose data.
func (m *Materializer) writeSequence(acq *domain.Acquisition, seq *domain.Sequence, root, posesRoot string, report *domain.AcquisitionReport) {
	acquisitionID := acq.ID()
	sequenceID := seq.ID()
	imageDir := filepath.Join(root, domain.ImagesDirName, sequenceID)
	annotationDir := filepath.Join(root, domain.AnnotationsDirName, sequenceID)
	for _, dir := range []string{imageDir, annotationDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			report.Warn(domain.WarningFrameWrite, fmt.Sprintf("%s: creating %s: %v", sequenceID, dir, err))
			report.FramesFailed += len(seq.Frames)
			return
		}
	}

	rows := make([]trajectoryRow, 0, len(seq.Frames))
	written := 0
	for i := range seq.Frames {
		record := &seq.Frames[i]
		frameIndex := i + 1
		baseName := domain.FrameBaseName(acquisitionID, sequenceID, acq.Sensor, frameIndex)
		destPath := filepath.Join(imageDir, baseName+domain.NormalizedExt(record.SourcePath))

		if err := copyFile(record.SourcePath, destPath); err != nil {
			report.FramesFailed++
			report.Warn(domain.WarningFrameWrite, fmt.Sprintf("%s: copying %s: %v", sequenceID, record.OriginalName(), err))
			continue
		}
		payload := buildAnnotation(record, acquisitionID, sequenceID, acq.Sensor, frameIndex)
		if err := writeJSON(filepath.Join(annotationDir, baseName+".json"), payload); err != nil {
			report.FramesFailed++
			report.Warn(domain.WarningFrameWrite, fmt.Sprintf("%s: annotating %s: %v", sequenceID, record.OriginalName(), err))
			continue
		}

		rows = append(rows, buildTrajectoryRow(record, frameIndex, filepath.Base(destPath)))
		if record.UnorderedByTime() {
			report.UnorderedByTime++
		}
		written++
	}
	report.FramesProcessed += written
	logger.Debug("Sequence %s done (%d images).", sequenceID, written)

	// Trajectory artifacts are pose track exports: sequences without a
	// track get none, even when frames carry embedded timestamps.
	if acq.PoseTrack.IsEmpty() || !rowsHavePoseData(rows) {
		return
	}
	if err := writeTrajectoryCSV(filepath.Join(posesRoot, domain.TrajectoryCSVName(sequenceID)), rows); err != nil {
		report.Warn(domain.WarningFrameWrite, fmt.Sprintf("%s: trajectory csv: %v", sequenceID, err))
	}
	if payload := buildGeoJSONTrack(rows, acquisitionID, sequenceID, acq.Sensor); payload != nil {
		if err := writeJSON(filepath.Join(posesRoot, domain.TrajectoryGeoJSONName(sequenceID)), payload); err != nil {
			report.Warn(domain.WarningFrameWrite, fmt.Sprintf("%s: trajectory geojson: %v", sequenceID, err))
		}
	}
}

// writeIntrinsics copies a discovered calibration descriptor, falling back
// to a payload derived from image metadata.
func (m *Materializer) writeIntrinsics(acq *domain.Acquisition, calibrationRoot string, report *domain.AcquisitionReport) {
	dest := filepath.Join(calibrationRoot, domain.IntrinsicsFileName)
	if acq.CalibrationPath != "" {
		if err := copyFile(acq.CalibrationPath, dest); err != nil {
			report.Warn(domain.WarningFrameWrite, fmt.Sprintf("calibration copy: %v", err))
		}
		return
	}
	if payload := buildIntrinsics(acq); payload != nil {
		if err := writeJSON(dest, payload); err != nil {
			report.Warn(domain.WarningFrameWrite, fmt.Sprintf("intrinsics: %v", err))
		}
	}
}

// copyLidar copies point-cloud files into 06_point_clouds, prefixing the
// acquisition identifier unless the name already carries it.
func (m *Materializer) copyLidar(acq *domain.Acquisition, root string, report *domain.AcquisitionReport) {
	if len(acq.LidarPaths) == 0 {
		return
	}
	acquisitionID := acq.ID()
	lidarRoot := filepath.Join(root, domain.PointCloudsDirName)
	if err := os.MkdirAll(lidarRoot, 0o755); err != nil {
		report.Warn(domain.WarningFrameWrite, fmt.Sprintf("creating %s: %v", lidarRoot, err))
		return
	}
	prefix := strings.ToLower(acquisitionID + "_")
	for _, src := range acq.LidarPaths {
		baseName := filepath.Base(src)
		destName := baseName
		if !strings.HasPrefix(strings.ToLower(baseName), prefix) {
			destName = acquisitionID + "_" + baseName
		}
		dest := filepath.Join(lidarRoot, destName)
		if sameFile(src, dest) {
			continue
		}
		if err := copyFile(src, dest); err != nil {
			report.Warn(domain.WarningFrameWrite, fmt.Sprintf("copying point cloud %s: %v", baseName, err))
			continue
		}
		report.LidarCopied++
	}
}

// copyFile copies src to dst byte for byte and preserves the source
// modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
