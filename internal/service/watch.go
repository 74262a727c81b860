package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchOptions tunes the auto-rebuild loop.
type WatchOptions struct {
	// Autonomous also replays tracker-derived outcomes after each
	// rebuild, closing the feedback loop without operator input.
	Autonomous bool

	// OnRebuild is invoked after each completed rebuild. Optional.
	OnRebuild func(report *BuildReport)
}

// Watch rebuilds the index whenever the tracker CSV changes, with a
// debounce so editors that save in bursts trigger one rebuild. A
// fallback ticker catches writes the filesystem watcher misses (NFS,
// some container mounts). Blocks until ctx is cancelled.
func (s *Service) Watch(ctx context.Context, opts WatchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: spreadsheet exports replace
	// the file via rename, which drops a file-level watch.
	trackerPath, err := filepath.Abs(s.cfg.Paths.TrackerCSV)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(trackerPath)); err != nil {
		return fmt.Errorf("watching tracker directory: %w", err)
	}

	debounce := s.cfg.Watch.Debounce.Duration()
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	interval := s.cfg.Watch.Interval.Duration()
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	debounceTimer := time.NewTimer(debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastMod time.Time
	if fi, err := os.Stat(trackerPath); err == nil {
		lastMod = fi.ModTime()
	}

	s.logger.Info("watching tracker for changes",
		zap.String("path", trackerPath),
		zap.Duration("debounce", debounce),
		zap.Duration("interval", interval),
		zap.Bool("autonomous", opts.Autonomous))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != trackerPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounceTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))

		case <-debounceTimer.C:
			if fi, err := os.Stat(trackerPath); err == nil {
				lastMod = fi.ModTime()
			}
			s.rebuild(ctx, opts)

		case <-ticker.C:
			fi, err := os.Stat(trackerPath)
			if err != nil || !fi.ModTime().After(lastMod) {
				continue
			}
			lastMod = fi.ModTime()
			s.rebuild(ctx, opts)
		}
	}
}

// rebuild runs one watch-triggered build cycle. Failures are logged and
// the loop keeps running; a transiently broken CSV should not kill the
// watcher.
func (s *Service) rebuild(ctx context.Context, opts WatchOptions) {
	report, err := s.Build(ctx)
	if err != nil {
		s.logger.Error("watch rebuild failed", zap.Error(err))
		return
	}
	s.logger.Info("watch rebuild complete",
		zap.Int("count", report.Count),
		zap.Int("row_errors", len(report.RowErrors)))

	if opts.Autonomous {
		summary, err := s.SyncFeedback()
		if err != nil {
			s.logger.Error("autonomous feedback sync failed", zap.Error(err))
		} else if summary.Processed > 0 {
			s.logger.Info("autonomous feedback applied", zap.Int("processed", summary.Processed))
		}
	}
	if opts.OnRebuild != nil {
		opts.OnRebuild(report)
	}
}
