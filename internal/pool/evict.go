package pool

import (
	"context"
	"time"
)

// lruIdleLocked picks the idle instance with the smallest last-used stamp.
// Caller holds p.mu. In-use and loading instances are never candidates, so
// two concurrent evictions cannot pick the same victim: the winner removes
// it from the map before the lock is released.
func (p *Pool) lruIdleLocked() *instance {
	var lru *instance
	for _, inst := range p.instances {
		if !inst.idle() {
			continue
		}
		if lru == nil || inst.lastUsed.Before(lru.lastUsed) {
			lru = inst
		}
	}
	return lru
}

// SweepIdle unloads idle instances unused for longer than olderThan and
// returns how many were unloaded. olderThan zero unloads every idle
// instance (the memory-pressure path).
func (p *Pool) SweepIdle(olderThan time.Duration) int {
	cutoff := now().Add(-olderThan)
	p.mu.Lock()
	var victims []*instance
	for id, inst := range p.instances {
		if !inst.idle() {
			continue
		}
		if olderThan > 0 && inst.lastUsed.After(cutoff) {
			continue
		}
		delete(p.instances, id)
		victims = append(victims, inst)
	}
	p.mu.Unlock()
	for _, v := range victims {
		p.unload(v, "idle sweep")
		idleUnloadsTotal.Inc()
	}
	return len(victims)
}

// RunSweeper runs the idle sweep on a timer until ctx is canceled.
func (p *Pool) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.SweepIdle(p.cfg.IdleUnload)
		}
	}
}

// unload closes a removed instance's engine outside the lock.
func (p *Pool) unload(inst *instance, reason string) {
	if err := inst.engine.Close(); err != nil {
		p.log.Warn().Err(err).Str("tier", inst.tier.ID).Msg("engine close")
	}
	loadedGauge.Dec()
	p.log.Info().Str("tier", inst.tier.ID).Str("reason", reason).Msg("instance unloaded")
}
