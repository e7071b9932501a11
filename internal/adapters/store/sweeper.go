package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type cleaner interface {
	Cleanup(ctx context.Context, cutoff time.Time) error
}

// sweeper periodically removes records older than the retention period
type sweeper struct {
	stopCh   chan struct{}
	stopOnce sync.Once
}

// startSweeper starts a background task cleaning c. With a non-positive
// retention or frequency no task is started and stop is a no-op.
func startSweeper(c cleaner, logger *zap.Logger, retention, cleanupFreq time.Duration) *sweeper {
	sw := &sweeper{stopCh: make(chan struct{})}
	if retention <= 0 || cleanupFreq <= 0 {
		return sw
	}

	go func() {
		ticker := time.NewTicker(cleanupFreq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := c.Cleanup(context.Background(), time.Now().Add(-retention)); err != nil {
					logger.Error("Failed to clean up store", zap.Error(err))
				}
			case <-sw.stopCh:
				return
			}
		}
	}()

	return sw
}

func (sw *sweeper) stop() {
	sw.stopOnce.Do(func() { close(sw.stopCh) })
}
