package driven

import (
	"context"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// RunLedger persists run summaries for the history command.
type RunLedger interface {
	// RecordRun stores a finished run's summary.
	RecordRun(ctx context.Context, summary *domain.RunSummary) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// GetRun returns one run by id, including its acquisition reports.
	// Returns domain.ErrNotFound when the id is unknown.
	GetRun(ctx context.Context, runID string) (*domain.RunSummary, error)

	// Close releases the underlying store.
	Close() error
}
