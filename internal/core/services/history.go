package services

import (
	"context"
	"fmt"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
)

// DefaultHistoryLimit caps how many runs a plain history listing shows.
const DefaultHistoryLimit = 10

// Ensure HistoryService implements the History interface.
var _ driving.History = (*HistoryService)(nil)

// HistoryService reads recorded runs from the run ledger.
type HistoryService struct {
	ledger driven.RunLedger
}

// NewHistoryService creates a history service over the given ledger.
func NewHistoryService(ledger driven.RunLedger) *HistoryService {
	return &HistoryService{ledger: ledger}
}

// Recent returns the latest runs, newest first. A non-positive limit uses
// the default.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if s.ledger == nil {
		return nil, fmt.Errorf("run ledger unavailable")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	runs, err := s.ledger.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Show returns one run with its acquisition reports.
func (s *HistoryService) Show(ctx context.Context, runID string) (*domain.RunSummary, error) {
	if s.ledger == nil {
		return nil, fmt.Errorf("run ledger unavailable")
	}
	run, err := s.ledger.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}
	return run, nil
}
