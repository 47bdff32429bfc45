package driving

import (
	"context"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// Watcher processes acquisition folders as they appear under the input root.
type Watcher interface {
	// Watch blocks until ctx is cancelled, running the pipeline for each
	// folder that settles (no filesystem events for the debounce window).
	// Runs are serialized; events during a run queue the folder.
	Watch(ctx context.Context, cfg domain.RunConfig) error
}
