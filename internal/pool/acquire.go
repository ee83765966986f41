package pool

import (
	"context"

	"github.com/google/uuid"

	"inferd/internal/llm"
	"inferd/pkg/types"
)

// Acquire resolves the tier for a task and returns a handle on a loaded
// engine serving it. A resident instance is shared; a missing one is loaded
// at most once regardless of how many callers arrive, with every waiter
// observing the same outcome. When capacity is full the least-recently-used
// idle instance is evicted first; with no idle victim Acquire fails fast
// with a pool-exhausted error instead of blocking.
//
// An explicit tierOverride names a catalog tier id or level; otherwise the task
// type's configured default or the host recommendation decides. Callers may
// wrap ctx with their own timeout; abandoning the wait never aborts the
// underlying load.
func (p *Pool) Acquire(ctx context.Context, taskType, tierOverride string, caps []types.Capability) (*Handle, error) {
	if len(caps) == 0 {
		caps = []types.Capability{types.CapTextGeneration}
	}
	override := tierOverride
	if override == "" {
		override = p.cfg.DefaultTiers[taskType]
	}
	kind := kindFor(caps)
	tier, profile, err := p.resolver.Resolve(kind, override)
	if err != nil {
		return nil, err
	}
	if !tier.HasCapabilities(caps) {
		return nil, capabilityError{tierID: tier.ID}
	}

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, poolClosedError{}
		}
		inst := p.instances[tier.ID]
		if inst != nil {
			if inst.state == StateReady {
				inst.refs++
				inst.lastUsed = now()
				p.mu.Unlock()
				p.resolver.MarkUsed(tier.ID)
				return &Handle{pool: p, inst: inst}, nil
			}
			// Join the in-flight load rather than starting a duplicate.
			ld := inst.load
			p.mu.Unlock()
			select {
			case <-ld.done:
				if ld.err != nil {
					return nil, ld.err
				}
				continue // claim under the lock on the next pass
			case <-ctx.Done():
				// The load keeps running for remaining waiters, or parks
				// the instance idle if nobody is left.
				return nil, ctx.Err()
			}
		}

		// New tier: make room if needed, then reserve a loading slot.
		if len(p.instances) >= p.cfg.MaxLoaded {
			victim := p.lruIdleLocked()
			if victim == nil {
				p.mu.Unlock()
				return nil, poolExhaustedError{tierID: tier.ID}
			}
			delete(p.instances, victim.tier.ID)
			p.evictions++
			p.mu.Unlock()
			p.unload(victim, "evicted for capacity")
			evictionsTotal.Inc()
			continue
		}
		inst = &instance{
			tier:      tier,
			state:     StateLoading,
			lastUsed:  now(),
			gpuLayers: gpuLayersFor(tier, profile),
			load:      &load{done: make(chan struct{})},
		}
		p.instances[tier.ID] = inst
		p.mu.Unlock()
		loadedGauge.Inc()
		go p.runLoad(inst, kind, override)
	}
}

// runLoad performs the slow ensure+construct outside the lock and publishes
// the outcome through the instance's latch. It is bound to the pool's
// lifecycle context so a single caller's timeout cannot abort it.
func (p *Pool) runLoad(inst *instance, kind, override string) {
	opID := uuid.NewString()
	p.log.Info().Str("op", opID).Str("tier", inst.tier.ID).Int("gpu_layers", inst.gpuLayers).Msg("load start")

	var eng llm.Engine
	_, path, err := p.resolver.EnsureAvailable(p.baseCtx, kind, override)
	if err == nil {
		eng, err = p.factory.Construct(path, p.cfg.ContextWindow, inst.gpuLayers)
	}

	p.mu.Lock()
	ld := inst.load
	inst.load = nil
	if err != nil {
		ld.err = engineLoadError{tierID: inst.tier.ID, cause: err}
		delete(p.instances, inst.tier.ID)
		p.mu.Unlock()
		loadedGauge.Dec()
		loadFailuresTotal.Inc()
		p.log.Error().Str("op", opID).Str("tier", inst.tier.ID).Err(err).Msg("load failed")
		close(ld.done)
		return
	}
	if p.closed {
		// Shutdown raced the load; discard the fresh engine.
		delete(p.instances, inst.tier.ID)
		p.mu.Unlock()
		eng.Close()
		loadedGauge.Dec()
		close(ld.done)
		return
	}
	inst.engine = eng
	inst.state = StateReady
	inst.lastUsed = now()
	p.loads++
	p.mu.Unlock()
	loadsTotal.Inc()
	p.log.Info().Str("op", opID).Str("tier", inst.tier.ID).Msg("load ready")
	close(ld.done)
}

// Release returns a handle's instance to the idle set and stamps last-used.
func (p *Pool) Release(h *Handle) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	if h.inst.refs > 0 {
		h.inst.refs--
	}
	h.inst.lastUsed = now()
}
