package cache

import (
	"context"
	"time"
)

// RunSweeper removes expired entries on a timer until ctx is canceled.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Sweep()
		}
	}
}
