package services

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
)

// --- Mock implementations shared by the service tests ---

// mockMetadataSource implements driven.MetadataSource for testing.
// Lookups are keyed by basename so fixtures stay independent of temp
// directories; unknown images yield empty metadata, like a real image
// without EXIF.
type mockMetadataSource struct {
	metas map[string]*domain.ImageMetadata
	errs  map[string]error
}

func (m *mockMetadataSource) Extract(path string) (*domain.ImageMetadata, error) {
	name := filepath.Base(path)
	if err, ok := m.errs[name]; ok {
		return nil, err
	}
	if meta, ok := m.metas[name]; ok {
		return meta, nil
	}
	return &domain.ImageMetadata{}, nil
}

// mockPoseSource implements driven.PoseSource for testing.
type mockPoseSource struct {
	track     *domain.PoseTrack
	err       error
	readPaths []string
	epochs    []domain.PoseEpoch
}

func (m *mockPoseSource) Read(path string, epoch domain.PoseEpoch) (*domain.PoseTrack, error) {
	m.readPaths = append(m.readPaths, path)
	m.epochs = append(m.epochs, epoch)
	if m.err != nil {
		return nil, m.err
	}
	return m.track, nil
}

// mockOutputWriter implements driven.OutputWriter for testing. It fills
// the report the way the real materializer does, without touching disk.
type mockOutputWriter struct {
	written []*domain.Acquisition
	outDirs []string
	failErr error
}

func (m *mockOutputWriter) WriteAcquisition(acq *domain.Acquisition, outputDir string, report *domain.AcquisitionReport) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.written = append(m.written, acq)
	m.outDirs = append(m.outDirs, outputDir)
	report.FramesProcessed += acq.FrameCount()
	report.SequencesEmitted = len(acq.Sequences)
	report.LidarCopied = len(acq.LidarPaths)
	for i := range acq.Sequences {
		for j := range acq.Sequences[i].Frames {
			if acq.Sequences[i].Frames[j].UnorderedByTime() {
				report.UnorderedByTime++
			}
		}
	}
	return nil
}

// mockProbe implements driven.PointCloudProbe for testing, keyed by
// basename.
type mockProbe struct {
	counts map[string]int64
	errs   map[string]error
}

func (m *mockProbe) PointCount(path string) (int64, error) {
	name := filepath.Base(path)
	if err, ok := m.errs[name]; ok {
		return 0, err
	}
	return m.counts[name], nil
}

// mockLedger implements driven.RunLedger for testing.
type mockLedger struct {
	runs      []domain.RunSummary
	recordErr error
	lastLimit int
	listErr   error
	closed    bool
}

func (m *mockLedger) RecordRun(_ context.Context, summary *domain.RunSummary) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.runs = append(m.runs, *summary)
	return nil
}

func (m *mockLedger) ListRuns(_ context.Context, limit int) ([]domain.RunSummary, error) {
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	start := len(m.runs) - limit
	if start < 0 {
		start = 0
	}
	out := make([]domain.RunSummary, 0, len(m.runs)-start)
	for i := len(m.runs) - 1; i >= start; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *mockLedger) GetRun(_ context.Context, runID string) (*domain.RunSummary, error) {
	for i := range m.runs {
		if m.runs[i].RunID == runID {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLedger) Close() error {
	m.closed = true
	return nil
}

// Interface checks for the mocks.
var (
	_ driven.MetadataSource  = (*mockMetadataSource)(nil)
	_ driven.PoseSource      = (*mockPoseSource)(nil)
	_ driven.OutputWriter    = (*mockOutputWriter)(nil)
	_ driven.PointCloudProbe = (*mockProbe)(nil)
	_ driven.RunLedger       = (*mockLedger)(nil)
	_ driving.Pipeline       = (*mockPipeline)(nil)
)

// mockPipeline implements driving.Pipeline for the watcher tests. Call
// counts are guarded because the watcher runs on its own goroutine.
type mockPipeline struct {
	mu          sync.Mutex
	candidates  []domain.AcquisitionCandidate
	warnings    []domain.Warning
	discoverErr error
	runErr      error
	discovers   int
	runs        int
}

func (m *mockPipeline) Discover(_ context.Context, _ domain.RunConfig) ([]domain.AcquisitionCandidate, []domain.Warning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discovers++
	if m.discoverErr != nil {
		return nil, nil, m.discoverErr
	}
	return m.candidates, m.warnings, nil
}

func (m *mockPipeline) Plan(_ context.Context, _ domain.RunConfig, _ []driving.AcquisitionJob) (*driving.RunPlan, error) {
	return &driving.RunPlan{}, nil
}

func (m *mockPipeline) Run(_ context.Context, _ domain.RunConfig, _ []driving.AcquisitionJob, discovery []domain.Warning) (*domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	if m.runErr != nil {
		return &domain.RunSummary{Status: domain.RunStatusFailed}, m.runErr
	}
	return &domain.RunSummary{
		RunID:    "watch-run",
		Status:   domain.RunStatusCompleted,
		Warnings: discovery,
	}, nil
}

func (m *mockPipeline) DiscoverCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discovers
}

func (m *mockPipeline) RunCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}
