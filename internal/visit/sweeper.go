package visit

import (
	"context"
	"log/slog"
	"time"
)

// SweepInterval is how often the retention sweeper runs.
const SweepInterval = 4 * time.Hour

// RunSweeper deletes stale records on a fixed interval until ctx is
// cancelled. A failed sweep is logged and retried on the next tick; it never
// terminates the loop.
func (s *Store) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("visit sweeper stopping")
			return
		case <-ticker.C:
		}

		slog.Debug("visit sweeper running")
		if err := s.Cleanup(ctx, Today()); err != nil {
			slog.Error("visit cleanup failed", "error", err)
		}
	}
}
