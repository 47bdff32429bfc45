package driving

import (
	"context"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// History exposes recorded runs to the CLI.
type History interface {
	// Recent returns the latest runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Show returns one run with its acquisition reports.
	Show(ctx context.Context, runID string) (*domain.RunSummary, error)
}
