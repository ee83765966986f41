package pool

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/llm"
	"inferd/pkg/types"
)

// Resolver resolves tiers for the host and guarantees their artifacts on
// disk. Implemented by manager.AutoManager.
type Resolver interface {
	Resolve(kind, tierOverride string) (types.Tier, types.SystemProfile, error)
	EnsureAvailable(ctx context.Context, kind, tierOverride string) (types.Tier, string, error)
	MarkUsed(tierID string)
}

// Pool bounds loaded engines and serves per-task acquisition. All
// bookkeeping lives behind mu; slow work (ensure, construct, close) always
// runs outside it.
type Pool struct {
	mu        sync.Mutex
	cfg       Config
	instances map[string]*instance
	closed    bool

	resolver Resolver
	factory  llm.Factory

	// baseCtx bounds background loads to the pool lifecycle, not to any
	// single caller.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	loads     uint64
	evictions uint64

	log zerolog.Logger
}

// New constructs a Pool. Shutdown must be called to release engines.
func New(cfg Config, resolver Resolver, factory llm.Factory, log zerolog.Logger) *Pool {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Pool{
		cfg:        cfg.withDefaults(),
		instances:  make(map[string]*instance),
		resolver:   resolver,
		factory:    factory,
		baseCtx:    baseCtx,
		cancelBase: cancel,
		log:        log,
	}
}

// ActiveTiers reports tiers backing resident instances, loading included.
// Retention consults this set and never deletes a member's artifact.
func (p *Pool) ActiveTiers() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool, len(p.instances))
	for id := range p.instances {
		out[id] = true
	}
	return out
}

// Status returns a point-in-time view for the status API.
func (p *Pool) Status() ([]types.InstanceStatus, uint64, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.InstanceStatus, 0, len(p.instances))
	for _, inst := range p.instances {
		out = append(out, types.InstanceStatus{
			TierID:       inst.tier.ID,
			State:        string(inst.state),
			LastUsed:     inst.lastUsed.Unix(),
			InUse:        inst.refs > 0,
			Refs:         inst.refs,
			Capabilities: inst.tier.Capabilities,
		})
	}
	return out, p.loads, p.evictions
}

// Shutdown stops background loads, unloads every idle instance, and fails
// all later acquires. In-flight loads publish and are discarded on arrival.
func (p *Pool) Shutdown() {
	p.cancelBase()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	var victims []*instance
	for id, inst := range p.instances {
		if inst.state == StateReady {
			delete(p.instances, id)
			victims = append(victims, inst)
		}
	}
	p.mu.Unlock()
	for _, v := range victims {
		if err := v.engine.Close(); err != nil {
			p.log.Warn().Err(err).Str("tier", v.tier.ID).Msg("engine close on shutdown")
		}
		loadedGauge.Dec()
	}
	p.log.Info().Int("unloaded", len(victims)).Msg("pool shut down")
}

// kindFor derives the catalog kind from requested capabilities.
func kindFor(caps []types.Capability) string {
	for _, c := range caps {
		if c == types.CapVision {
			return catalog.KindVLM
		}
	}
	return catalog.KindLLM
}

// gpuLayersFor budgets accelerator offload: everything when the host's VRAM
// covers the tier's minimum, CPU-only otherwise.
func gpuLayersFor(tier types.Tier, profile types.SystemProfile) int {
	if tier.MinVRAMGB > 0 && profile.VRAMGB >= tier.MinVRAMGB {
		return fullOffloadLayers
	}
	return 0
}

// now is a hook for deterministic time in tests.
var now = time.Now
