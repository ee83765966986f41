package pool

import "time"

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxLoaded     = 2
	defaultIdleUnload    = 30 * time.Minute
	defaultContextWindow = 4096
	// Full accelerator offload, applied when the host's VRAM covers the
	// tier's minimum.
	fullOffloadLayers = 100
)

// Config encapsulates all tunables for Pool construction.
type Config struct {
	// MaxLoaded bounds resident instances; loading slots count.
	MaxLoaded int
	// IdleUnload is the idle age after which the sweep unloads an instance.
	IdleUnload time.Duration
	// ContextWindow passed to engine construction.
	ContextWindow int
	// DefaultTiers maps task types to tier overrides (catalog ids or
	// levels); unmapped task types fall back to the host recommendation.
	DefaultTiers map[string]string
}

func (c Config) withDefaults() Config {
	if c.MaxLoaded <= 0 {
		c.MaxLoaded = defaultMaxLoaded
	}
	if c.IdleUnload <= 0 {
		c.IdleUnload = defaultIdleUnload
	}
	if c.ContextWindow <= 0 {
		c.ContextWindow = defaultContextWindow
	}
	return c
}
