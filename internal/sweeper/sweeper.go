package sweeper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/theayooolofin/Ilovevideo/internal/logging"
	"github.com/theayooolofin/Ilovevideo/internal/metrics"
	"github.com/theayooolofin/Ilovevideo/internal/usage"
)

// usageRetentionDays is how long stale per-day usage rows are kept
// before being pruned.
const usageRetentionDays = 7

// Sweeper periodically removes scratch files older than MaxFileAge and
// prunes stale usage rows. It is the backstop for jobs whose cleanup
// never ran, such as after a crash.
type Sweeper struct {
	dirs       []string
	maxFileAge time.Duration
	store      usage.Store
	cron       *cron.Cron
	now        func() time.Time
}

// New creates a sweeper over the given scratch directories. store may be
// nil, in which case usage pruning is skipped.
func New(dirs []string, maxFileAge time.Duration, store usage.Store) *Sweeper {
	return &Sweeper{
		dirs:       dirs,
		maxFileAge: maxFileAge,
		store:      store,
		now:        time.Now,
	}
}

// Start schedules the sweep at the given interval and runs one sweep
// immediately so a restart cleans up leftovers without waiting.
func (s *Sweeper) Start(interval time.Duration) error {
	s.cron = cron.New()

	spec := fmt.Sprintf("@every %s", interval)
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	logging.Info("Sweeper started: interval=%s maxFileAge=%s dirs=%v", interval, s.maxFileAge, s.dirs)

	go s.Sweep()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	logging.Info("Sweeper stopped")
}

// Sweep runs a single pass over all directories.
func (s *Sweeper) Sweep() {
	metrics.SweeperRunsTotal.Inc()
	metrics.SweeperLastRunTimestamp.SetToCurrentTime()

	cutoff := s.now().Add(-s.maxFileAge)
	removed := 0

	for _, dir := range s.dirs {
		n, err := s.sweepDir(dir, cutoff)
		removed += n
		if err != nil {
			metrics.SweeperErrors.Inc()
			logging.Error("Sweep of %s failed: %v", dir, err)
		}
	}

	if removed > 0 {
		logging.Info("Sweep removed %d file(s)", removed)
	} else {
		logging.Debug("Sweep found nothing to remove")
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := s.store.Prune(ctx, usageRetentionDays)
		if err != nil {
			metrics.SweeperErrors.Inc()
			logging.Error("Usage prune failed: %v", err)
		} else if n > 0 {
			logging.Info("Pruned %d stale usage row(s)", n)
		}
	}
}

func (s *Sweeper) sweepDir(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			// A job may have cleaned up between stat and remove.
			if os.IsNotExist(err) {
				continue
			}
			metrics.SweeperErrors.Inc()
			logging.Warn("Failed to remove %s: %v", path, err)
			continue
		}

		removed++
		metrics.SweeperFilesRemoved.Inc()
		logging.Debug("Removed stale file: %s (age %v)", path, s.now().Sub(info.ModTime()).Round(time.Second))
	}

	return removed, nil
}
