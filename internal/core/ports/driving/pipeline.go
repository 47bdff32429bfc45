package driving

import (
	"context"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// AcquisitionJob pairs a discovered candidate with its resolved region and
// sensor label. Resolution (flags, folder naming, prompts) is the driving
// adapter's responsibility; the pipeline never prompts.
type AcquisitionJob struct {
	// Candidate is the discovered acquisition folder.
	Candidate domain.AcquisitionCandidate

	// Region is the normalized region tag.
	Region string

	// Sensor is the resolved sensor label, "" to let the builder fall back
	// to the candidate's detected default or the fixed default label.
	Sensor string
}

// RunPlan previews a run without writing output.
type RunPlan struct {
	// Acquisitions are the fully grouped and allocated acquisitions.
	Acquisitions []domain.Acquisition

	// Warnings are the diagnostics discovery produced.
	Warnings []domain.Warning
}

// Pipeline drives the normalization flow: discovery, then a dry-run plan or
// a materializing run over resolved jobs.
type Pipeline interface {
	// Discover scans the input root and returns acquisition candidates in
	// deterministic order, plus one warning per zero-image folder it
	// skipped. Callers hand the warnings back to Run so they land on the
	// summary; a root without any candidate is an error.
	Discover(ctx context.Context, cfg domain.RunConfig) ([]domain.AcquisitionCandidate, []domain.Warning, error)

	// Plan builds and allocates records for the jobs without touching the
	// output tree.
	Plan(ctx context.Context, cfg domain.RunConfig, jobs []AcquisitionJob) (*RunPlan, error)

	// Run executes the jobs and materializes the canonical output tree,
	// always returning a summary for the acquisitions it processed, also
	// on fatal errors that abort the run midway. The discovery warnings
	// become the summary's run-level warnings and are persisted with it.
	Run(ctx context.Context, cfg domain.RunConfig, jobs []AcquisitionJob, discovery []domain.Warning) (*domain.RunSummary, error)
}
