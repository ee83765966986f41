package pool

import (
	"time"

	"inferd/internal/llm"
	"inferd/pkg/types"
)

// State represents the lifecycle state of a pool instance.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// load is the latch shared by every caller waiting on one construction.
// done is closed exactly once, after err is set.
type load struct {
	done chan struct{}
	err  error
}

// instance is a live engine slot (one per tier). Owned by the pool; callers
// only ever see a Handle.
type instance struct {
	tier      types.Tier
	state     State
	engine    llm.Engine
	lastUsed  time.Time
	refs      int
	gpuLayers int
	load      *load
}

func (i *instance) idle() bool { return i.state == StateReady && i.refs == 0 }

// Handle is a caller's scoped grant on a loaded instance. Release it when
// the task finishes; the engine stays resident for reuse.
type Handle struct {
	pool     *Pool
	inst     *instance
	released bool
}

// Engine returns the loaded engine behind the handle.
func (h *Handle) Engine() llm.Engine { return h.inst.engine }

// TierID identifies the tier the handle serves.
func (h *Handle) TierID() string { return h.inst.tier.ID }

// Capabilities of the underlying tier.
func (h *Handle) Capabilities() []types.Capability { return h.inst.tier.Capabilities }

// Release returns the instance to the idle set. Safe to call once; repeat
// calls are no-ops.
func (h *Handle) Release() { h.pool.Release(h) }
