package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
	"github.com/holobase-labs/seqpack-cli/internal/logger"
)

// Ensure NormalizePipeline implements the Pipeline interface.
var _ driving.Pipeline = (*NormalizePipeline)(nil)

// NormalizePipeline orchestrates a run: discovery, record building,
// sequence allocation and materialization, accumulating the run summary.
type NormalizePipeline struct {
	scanner   *Scanner
	builder   *RecordBuilder
	allocator *SequenceAllocator
	poses     driven.PoseSource
	writer    driven.OutputWriter
	probe     driven.PointCloudProbe
	ledger    driven.RunLedger
	clock     domain.Clock
}

// NewNormalizePipeline creates a pipeline over the given components. The
// ledger may be nil when run persistence is not wanted; a nil clock means
// wall-clock time.
func NewNormalizePipeline(
	scanner *Scanner,
	builder *RecordBuilder,
	allocator *SequenceAllocator,
	poses driven.PoseSource,
	writer driven.OutputWriter,
	probe driven.PointCloudProbe,
	ledger driven.RunLedger,
	clock domain.Clock,
) *NormalizePipeline {
	if clock == nil {
		clock = time.Now
	}
	return &NormalizePipeline{
		scanner:   scanner,
		builder:   builder,
		allocator: allocator,
		poses:     poses,
		writer:    writer,
		probe:     probe,
		ledger:    ledger,
		clock:     clock,
	}
}

// Discover validates the configuration and scans the input root for
// acquisition candidates, returning the warnings discovery produced so the
// caller can carry them into the run. A root without any usable image is
// an error.
func (p *NormalizePipeline) Discover(ctx context.Context, cfg domain.RunConfig) ([]domain.AcquisitionCandidate, []domain.Warning, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	candidates, warnings, err := p.scanner.DiscoverCandidates(cfg)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("%w under %s", domain.ErrNoImages, cfg.InputDir)
	}
	return candidates, warnings, nil
}

// Plan assembles the acquisitions every job would produce, without
// touching the output tree.
func (p *NormalizePipeline) Plan(ctx context.Context, cfg domain.RunConfig, jobs []driving.AcquisitionJob) (*driving.RunPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	plan := &driving.RunPlan{}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		acquisitions, warnings, err := p.assemble(cfg, job)
		if err != nil {
			return nil, err
		}
		plan.Acquisitions = append(plan.Acquisitions, acquisitions...)
		plan.Warnings = append(plan.Warnings, warnings...)
	}
	return plan, nil
}

// Run executes every job and materializes the output tree. The summary is
// always returned, with its status reflecting how the run ended and the
// discovery warnings attached, and is recorded to the ledger when one is
// configured.
func (p *NormalizePipeline) Run(ctx context.Context, cfg domain.RunConfig, jobs []driving.AcquisitionJob, discovery []domain.Warning) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		StartedAt: p.clock(),
		Status:    domain.RunStatusCompleted,
		Warnings:  append([]domain.Warning(nil), discovery...),
	}

	err := p.process(ctx, cfg, jobs, summary)
	summary.FinishedAt = p.clock()
	if err != nil {
		summary.Status = domain.RunStatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			summary.Status = domain.RunStatusCancelled
		}
	}

	p.persist(ctx, summary)
	return summary, err
}

func (p *NormalizePipeline) process(ctx context.Context, cfg domain.RunConfig, jobs []driving.AcquisitionJob, summary *domain.RunSummary) error {
	// 1. Validate configuration before touching the output tree.
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Info("Starting run %s: %d acquisition folder(s).", summary.RunID, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.runJob(cfg, job, summary); err != nil {
			return err
		}
	}
	logger.Info("Done. %d file(s) copied into %d acquisition folder(s).", summary.TotalProcessed(), len(summary.Reports))
	return nil
}

// runJob materializes every acquisition one input folder produces.
func (p *NormalizePipeline) runJob(cfg domain.RunConfig, job driving.AcquisitionJob, summary *domain.RunSummary) error {
	// 2. Assemble date-grouped acquisitions for the folder.
	acquisitions, jobWarnings, err := p.assemble(cfg, job)
	if err != nil {
		return err
	}

	for i := range acquisitions {
		acq := &acquisitions[i]
		report := domain.AcquisitionReport{
			AcquisitionID: acq.ID(),
			SourceFolder:  acq.SourceFolder,
		}
		// Folder-level diagnostics ride on the folder's first acquisition.
		if i == 0 {
			report.Warnings = append(report.Warnings, jobWarnings...)
			if acq.PoseTrack != nil {
				report.PoseRowsSkipped = acq.PoseTrack.SkippedRows
			}
		}
		for _, record := range acq.FailedFrames {
			report.FramesFailed++
			report.Warn(domain.WarningFrameRead, fmt.Sprintf("%s: %s", record.SourcePath, record.FailReason))
		}

		// 3. Write the canonical tree.
		logger.Info("Processing %s (%d frames)...", acq.ID(), acq.FrameCount())
		if err := p.writer.WriteAcquisition(acq, cfg.OutputDir, &report); err != nil {
			summary.Reports = append(summary.Reports, report)
			return err
		}

		// 4. Post-write diagnostics.
		p.collectPoseStats(acq, &report)
		p.probeLidar(acq, &report)
		if report.UnorderedByTime > 0 {
			report.Warn(domain.WarningUnorderedByTime, fmt.Sprintf("%d frame(s) ordered by file time", report.UnorderedByTime))
		}
		summary.Reports = append(summary.Reports, report)
	}
	return nil
}

// assemble turns one folder's discovered inputs into date-grouped
// acquisitions with allocated sequences.
func (p *NormalizePipeline) assemble(cfg domain.RunConfig, job driving.AcquisitionJob) ([]domain.Acquisition, []domain.Warning, error) {
	candidate := job.Candidate
	region, sensor, err := p.resolveIdentity(job)
	if err != nil {
		return nil, nil, err
	}

	var warnings []domain.Warning
	var track *domain.PoseTrack
	if candidate.PosePath != "" {
		loaded, err := p.poses.Read(candidate.PosePath, cfg.PoseEpoch)
		if err != nil {
			logger.Warn("Pose track %s unusable, continuing without it: %v", candidate.PosePath, err)
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarningPoseDegraded,
				Message: fmt.Sprintf("pose track %s: %v", candidate.PosePath, err),
			})
		} else {
			track = loaded
		}
	}

	records := p.builder.BuildRecords(candidate.Images, track, cfg.MaxPoseGap())
	groups := groupByDate(records, candidate.FolderDate)
	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	acquisitions := make([]domain.Acquisition, 0, len(dates))
	for _, date := range dates {
		allocatable, failed := splitFailed(groups[date])
		acquisitions = append(acquisitions, domain.Acquisition{
			Date:            date,
			Region:          region,
			Sensor:          sensor,
			SourceFolder:    candidate.Folder,
			Sequences:       p.allocator.Allocate(allocatable, cfg.MaxPerSequence),
			PoseTrack:       track,
			LidarPaths:      candidate.LidarPaths,
			CalibrationPath: candidate.CalibrationPath,
			FailedFrames:    failed,
		})
	}
	return acquisitions, warnings, nil
}

// resolveIdentity normalizes the job's region and sensor, falling back to
// folder detection and the fixed default sensor label.
func (p *NormalizePipeline) resolveIdentity(job driving.AcquisitionJob) (string, string, error) {
	rawRegion := job.Region
	if rawRegion == "" {
		rawRegion = job.Candidate.FolderRegion
	}
	region, err := domain.NormalizeToken(rawRegion, "Region")
	if err != nil {
		return "", "", fmt.Errorf("folder %s: %w", job.Candidate.Folder, err)
	}

	rawSensor := job.Sensor
	if rawSensor == "" {
		rawSensor = job.Candidate.DefaultSensor
	}
	if rawSensor == "" {
		rawSensor = domain.DefaultSensorLabel
	}
	sensor, err := domain.NormalizeToken(rawSensor, "Sensor ID")
	if err != nil {
		return "", "", fmt.Errorf("folder %s: %w", job.Candidate.Folder, err)
	}
	return region, sensor, nil
}

// groupByDate buckets records by acquisition date. A folder date pins the
// whole folder; otherwise each record's own capture date decides, so one
// folder spanning midnight yields several acquisitions.
func groupByDate(records []domain.FrameRecord, folderDate string) map[string][]domain.FrameRecord {
	groups := make(map[string][]domain.FrameRecord)
	for _, record := range records {
		date := folderDate
		if date == "" {
			date = record.CaptureDate
		}
		groups[date] = append(groups[date], record)
	}
	return groups
}

// splitFailed separates readable records from failed ones.
func splitFailed(records []domain.FrameRecord) (allocatable, failed []domain.FrameRecord) {
	for _, record := range records {
		if record.Failed {
			failed = append(failed, record)
			continue
		}
		allocatable = append(allocatable, record)
	}
	return allocatable, failed
}

// collectPoseStats summarizes the matched pose gaps of an acquisition.
func (p *NormalizePipeline) collectPoseStats(acq *domain.Acquisition, report *domain.AcquisitionReport) {
	var gaps []float64
	for i := range acq.Sequences {
		for j := range acq.Sequences[i].Frames {
			record := &acq.Sequences[i].Frames[j]
			if record.PoseSample == nil {
				continue
			}
			gaps = append(gaps, record.PoseGap.Seconds())
		}
	}
	if len(gaps) == 0 {
		return
	}
	report.PoseStats = domain.PoseMatchStats{
		Matched:        len(gaps),
		MeanGapSeconds: stat.Mean(gaps, nil),
		MaxGapSeconds:  floats.Max(gaps),
	}
}

// probeLidar totals the declared point counts of the acquisition's
// point-cloud files. Probe failures are warnings; copying does not depend
// on them.
func (p *NormalizePipeline) probeLidar(acq *domain.Acquisition, report *domain.AcquisitionReport) {
	for _, path := range acq.LidarPaths {
		count, err := p.probe.PointCount(path)
		if err != nil {
			report.Warn(domain.WarningPointCloud, fmt.Sprintf("probing %s: %v", path, err))
			continue
		}
		report.LidarPoints += count
	}
}

// persist records the summary to the ledger, surviving a cancelled run
// context. Persistence failures are logged, never fatal.
func (p *NormalizePipeline) persist(ctx context.Context, summary *domain.RunSummary) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.RecordRun(context.WithoutCancel(ctx), summary); err != nil {
		logger.Warn("Recording run %s failed: %v", summary.RunID, err)
	}
}

// JobsFromCandidates pairs every candidate with the run-level region and
// sensor values. Interactive adapters replace this with per-folder
// answers.
func JobsFromCandidates(candidates []domain.AcquisitionCandidate, cfg domain.RunConfig) []driving.AcquisitionJob {
	label, _ := cfg.Sensor.Label()
	jobs := make([]driving.AcquisitionJob, 0, len(candidates))
	for _, candidate := range candidates {
		jobs = append(jobs, driving.AcquisitionJob{
			Candidate: candidate,
			Region:    cfg.Region,
			Sensor:    label,
		})
	}
	return jobs
}
