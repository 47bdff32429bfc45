// Command seqpack normalizes raw capture folders into the canonical
// acquisition layout.
package main

import (
	"fmt"
	"os"
	"time"

	configfile "github.com/holobase-labs/seqpack-cli/internal/adapters/driven/config/file"
	ledgersqlite "github.com/holobase-labs/seqpack-cli/internal/adapters/driven/ledger/sqlite"
	"github.com/holobase-labs/seqpack-cli/internal/adapters/driving/cli"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/core/services"
	"github.com/holobase-labs/seqpack-cli/internal/detect"
	"github.com/holobase-labs/seqpack-cli/internal/layout"
	"github.com/holobase-labs/seqpack-cli/internal/logger"
	"github.com/holobase-labs/seqpack-cli/internal/metadata/exif"
	"github.com/holobase-labs/seqpack-cli/internal/pointcloud/las"
	"github.com/holobase-labs/seqpack-cli/internal/posetrack"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("initializing config store: %w", err)
	}

	// A broken ledger downgrades run persistence, it never blocks a run.
	store, err := ledgersqlite.NewStore("")
	if err != nil {
		logger.Warn("run ledger unavailable, runs will not be recorded: %v", err)
		store = nil
	}
	defer func() {
		if store != nil {
			_ = store.Close()
		}
	}()

	metadata := exif.NewReader()
	scanner := services.NewScanner(metadata, detect.DefaultRegistry())
	builder := services.NewRecordBuilder(metadata)
	allocator := services.NewSequenceAllocator()

	pipeline := services.NewNormalizePipeline(
		scanner,
		builder,
		allocator,
		posetrack.NewReader(),
		layout.NewMaterializer(),
		las.NewProbe(),
		ledgerOrNil(store),
		nil,
	)

	history := services.NewHistoryService(ledgerOrNil(store))
	watcher := services.NewWatchService(pipeline, 2*time.Second)

	cli.SetVersionInfo(version, commit, date)
	cli.SetServices(&cli.Services{
		Pipeline: pipeline,
		History:  history,
		Watcher:  watcher,
		Config:   configStore,
	})

	return cli.Execute()
}

// ledgerOrNil keeps a nil store a nil interface, so pipeline and history
// nil checks stay meaningful.
func ledgerOrNil(store *ledgersqlite.Store) driven.RunLedger {
	if store == nil {
		return nil
	}
	return store
}
