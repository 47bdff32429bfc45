package cli

import (
	"context"
	"time"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
)

// --- Mocks shared by the command tests ---

// mockPipeline implements driving.Pipeline. Discover returns the fixed
// candidates and warnings; Run records the config, jobs and discovery
// warnings it was called with.
type mockPipeline struct {
	candidates  []domain.AcquisitionCandidate
	warnings    []domain.Warning
	discoverErr error
	summary     *domain.RunSummary
	runErr      error

	lastCfg       domain.RunConfig
	lastJobs      []driving.AcquisitionJob
	lastDiscovery []domain.Warning
	runs          int
}

func (m *mockPipeline) Discover(_ context.Context, cfg domain.RunConfig) ([]domain.AcquisitionCandidate, []domain.Warning, error) {
	m.lastCfg = cfg
	if m.discoverErr != nil {
		return nil, nil, m.discoverErr
	}
	return m.candidates, m.warnings, nil
}

func (m *mockPipeline) Plan(_ context.Context, cfg domain.RunConfig, jobs []driving.AcquisitionJob) (*driving.RunPlan, error) {
	m.lastCfg = cfg
	m.lastJobs = jobs
	return &driving.RunPlan{}, nil
}

func (m *mockPipeline) Run(_ context.Context, cfg domain.RunConfig, jobs []driving.AcquisitionJob, discovery []domain.Warning) (*domain.RunSummary, error) {
	m.lastCfg = cfg
	m.lastJobs = jobs
	m.lastDiscovery = discovery
	m.runs++
	if m.summary != nil || m.runErr != nil {
		return m.summary, m.runErr
	}
	return &domain.RunSummary{
		RunID:      "test-run",
		Status:     domain.RunStatusCompleted,
		StartedAt:  time.Date(2025, 4, 23, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 4, 23, 10, 0, 5, 0, time.UTC),
		Warnings:   discovery,
	}, nil
}

// mockHistory implements driving.History.
type mockHistory struct {
	runs      []domain.RunSummary
	lastLimit int
}

func (m *mockHistory) Recent(_ context.Context, limit int) ([]domain.RunSummary, error) {
	m.lastLimit = limit
	return m.runs, nil
}

func (m *mockHistory) Show(_ context.Context, runID string) (*domain.RunSummary, error) {
	for i := range m.runs {
		if m.runs[i].RunID == runID {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockWatcher implements driving.Watcher.
type mockWatcher struct {
	lastCfg domain.RunConfig
	err     error
}

func (m *mockWatcher) Watch(_ context.Context, cfg domain.RunConfig) error {
	m.lastCfg = cfg
	return m.err
}

// mockConfigStore implements driven.ConfigStore over a plain map.
type mockConfigStore struct {
	values map[string]any
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.values[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	if v, ok := m.values[key].(int); ok {
		return v
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	switch v := m.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetBool(key string) bool {
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return false
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }
func (m *mockConfigStore) Load() error { return nil }
func (m *mockConfigStore) Path() string {
	return "/tmp/mock-config.toml"
}

// Interface checks for the mocks.
var (
	_ driving.Pipeline   = (*mockPipeline)(nil)
	_ driving.History    = (*mockHistory)(nil)
	_ driving.Watcher    = (*mockWatcher)(nil)
	_ driven.ConfigStore = (*mockConfigStore)(nil)
)

// setupServices swaps in mocked services and returns a restore func.
func setupServices(s *Services) func() {
	old := services
	services = s
	return func() { services = old }
}
