package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
	"github.com/holobase-labs/seqpack-cli/internal/logger"
)

// DefaultWatchDebounce is how long the input root must stay quiet before
// a run starts.
const DefaultWatchDebounce = 2 * time.Second

// Ensure WatchService implements the Watcher interface.
var _ driving.Watcher = (*WatchService)(nil)

// WatchService runs the pipeline whenever the input root settles after
// filesystem activity. Runs are serialized on one goroutine; events
// arriving during a run are picked up afterwards and schedule the next
// pass. Region resolution must work non-interactively (folder naming or
// the region flag), since there is nobody to prompt.
type WatchService struct {
	pipeline driving.Pipeline
	debounce time.Duration
}

// NewWatchService creates a watcher over the given pipeline. A
// non-positive debounce uses the default.
func NewWatchService(pipeline driving.Pipeline, debounce time.Duration) *WatchService {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &WatchService{
		pipeline: pipeline,
		debounce: debounce,
	}
}

// Watch blocks until ctx is cancelled, triggering a pipeline run each time
// the input tree goes quiet for the debounce window. Directories present at
// startup and those created later are all watched, so activity deep inside
// acquisition folders also resets the window.
func (s *WatchService) Watch(ctx context.Context, cfg domain.RunConfig) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.InputDir); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.InputDir, err)
	}
	// Half-copied folders that predate the watch must also hold off the
	// debounce window, so every existing directory is watched too.
	walkErr := filepath.WalkDir(cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == cfg.InputDir {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			logger.Debug("Watching %s failed: %v", path, err)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("scanning %s: %w", cfg.InputDir, walkErr)
	}
	logger.Info("Watching %s for acquisition folders (debounce %s).", cfg.InputDir, s.debounce)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	dirty := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Debug("Watching %s failed: %v", event.Name, err)
					}
				}
			}
			logger.Debug("Filesystem event: %s", event)
			dirty = true
			if timer == nil {
				timer = time.NewTimer(s.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.debounce)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Filesystem watcher: %v", watchErr)

		case <-timerC:
			timer = nil
			timerC = nil
			if !dirty {
				continue
			}
			dirty = false
			if err := s.runOnce(ctx, cfg); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Error("Watch run failed: %v", err)
			}
		}
	}
}

// runOnce performs one full discover-and-run pass. An input root without
// images yet is quietly skipped; the next settle tries again.
func (s *WatchService) runOnce(ctx context.Context, cfg domain.RunConfig) error {
	candidates, discovery, err := s.pipeline.Discover(ctx, cfg)
	if err != nil {
		if errors.Is(err, domain.ErrNoImages) {
			logger.Debug("Input settled without images, waiting for more.")
			return nil
		}
		return err
	}

	summary, err := s.pipeline.Run(ctx, cfg, JobsFromCandidates(candidates, cfg), discovery)
	if err != nil {
		return err
	}
	logger.Info("Watch run %s: %d frame(s) into %d acquisition(s).", summary.RunID, summary.TotalProcessed(), len(summary.Reports))
	return nil
}
