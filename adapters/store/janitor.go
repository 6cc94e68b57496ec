package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is implemented by stores that hold expiring entries in process memory
type Sweeper interface {
	Sweep(now time.Time) int
}

// fallibleSweeper is a Sweeper backed by storage that can fail
type fallibleSweeper interface {
	TrySweep(now time.Time) (int, error)
}

// RunJanitor sweeps every store on each tick until ctx is done.
func RunJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger, sweepers ...Sweeper) {
	if interval <= 0 || len(sweepers) == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := 0
			for _, s := range sweepers {
				removed += sweepOne(s, now, logger)
			}
			if removed > 0 {
				logger.Debug("swept expired entries", zap.Int("removed", removed))
			}
		}
	}
}

func sweepOne(s Sweeper, now time.Time, logger *zap.Logger) int {
	fs, ok := s.(fallibleSweeper)
	if !ok {
		return s.Sweep(now)
	}

	removed, err := fs.TrySweep(now)
	if err != nil {
		logger.Error("sweep failed", zap.Error(err))
		return 0
	}
	return removed
}
