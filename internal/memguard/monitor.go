package memguard

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"inferd/internal/cache"
)

// usedMemoryPercent measures host memory utilization. Measurement failures
// read as zero pressure.
func usedMemoryPercent() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.UsedPercent
}

// Check measures memory once and reacts: above the critical threshold it runs
// the emergency cleanup, above the high threshold it runs aggressive object
// and cache cleanup. Returns the measured percentage.
func (g *Guard) Check() float64 {
	pct := g.memPercent()
	switch {
	case pct > g.cfg.CriticalPercent:
		g.log.Warn().Float64("used_percent", pct).Msg("critical memory pressure")
		g.EmergencyCleanup()
	case pct > g.cfg.HighPercent:
		g.log.Info().Float64("used_percent", pct).Msg("high memory pressure")
		g.Cleanup(aggressiveIdle, false)
		g.mu.Lock()
		caches := append([]*cache.Cache(nil), g.caches...)
		g.mu.Unlock()
		for _, c := range caches {
			c.Cleanup(true)
		}
	}
	return pct
}

// RunMonitor checks memory pressure on a timer until ctx is canceled.
func (g *Guard) RunMonitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			g.Check()
		}
	}
}
