package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fatih/color"
)

// StartMaintenance runs CompactIfNeeded every interval until ctx is done
// or the store is closed. Wait on the returned group to join the worker.
func (s *Store) StartMaintenance(ctx context.Context, interval time.Duration, threshold float64) *sync.WaitGroup {

	wg := &sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()

		s.logger.Info("maintenance worker started", "interval", interval, "threshold", threshold)
		defer s.logger.Info("maintenance worker stopped")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			compacted, err := s.CompactIfNeeded(threshold)
			if errors.Is(err, ErrStoreClosed) {
				return
			}
			if err != nil {
				s.logger.Error("background compaction failed", "error", err)
				if s.config.Verbose {
					color.Red("background compaction failed: %s", err.Error())
				}
				continue
			}
			if compacted {
				s.logger.Debug("background compaction done")
			}
		}
	}()

	return wg
}
