// Package memguard tracks releasable objects and frees them under memory
// pressure. Objects opt in by implementing Releasable; there is no reflection
// or method probing.
package memguard

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/cache"
	"inferd/pkg/types"
)

// Releasable is the capability an object must implement to be tracked. The
// guard calls Release at most once per registration; after that the entry is
// gone and the object must re-register if it becomes resident again.
type Releasable interface {
	Release() error
}

// Defaults applied when corresponding Config fields are unset.
const (
	defaultHighPercent     = 80.0
	defaultCriticalPercent = 90.0
	defaultMaxIdle         = 30 * time.Minute
	// aggressiveIdle is the shortened idle horizon applied when memory is
	// high but not yet critical.
	aggressiveIdle = 5 * time.Minute
)

// Config encapsulates the guard's pressure thresholds.
type Config struct {
	// HighPercent is the used-memory percentage above which aggressive
	// cleanup runs.
	HighPercent float64
	// CriticalPercent is the used-memory percentage above which emergency
	// cleanup runs.
	CriticalPercent float64
	// MaxIdle is the idle age after which a tracked object is released
	// during a routine cleanup pass.
	MaxIdle time.Duration
}

func (c Config) withDefaults() Config {
	if c.HighPercent <= 0 {
		c.HighPercent = defaultHighPercent
	}
	if c.CriticalPercent <= 0 {
		c.CriticalPercent = defaultCriticalPercent
	}
	if c.MaxIdle <= 0 {
		c.MaxIdle = defaultMaxIdle
	}
	return c
}

type tracked struct {
	obj       Releasable
	sizeMB    float64
	essential bool
	lastUsed  time.Time
}

// Guard is the tracked-object registry plus the pressure monitor. All methods
// are safe for concurrent use.
type Guard struct {
	mu      sync.Mutex
	cfg     Config
	objects map[string]*tracked
	caches  []*cache.Cache

	// memPercent measures used system memory; swapped in tests.
	memPercent func() float64

	log zerolog.Logger
}

// New constructs a Guard with the given thresholds.
func New(cfg Config, log zerolog.Logger) *Guard {
	return &Guard{
		cfg:        cfg.withDefaults(),
		objects:    make(map[string]*tracked),
		memPercent: usedMemoryPercent,
		log:        log,
	}
}

// Register tracks obj under name. Essential objects survive every cleanup,
// emergency included. Re-registering a name replaces the previous entry.
func (g *Guard) Register(name string, obj Releasable, sizeMB float64, essential bool) {
	g.mu.Lock()
	g.objects[name] = &tracked{
		obj:       obj,
		sizeMB:    sizeMB,
		essential: essential,
		lastUsed:  now(),
	}
	g.mu.Unlock()
	g.log.Debug().Str("object", name).Float64("size_mb", sizeMB).Bool("essential", essential).Msg("tracking object")
}

// Unregister stops tracking name without releasing the object.
func (g *Guard) Unregister(name string) {
	g.mu.Lock()
	delete(g.objects, name)
	g.mu.Unlock()
}

// MarkUsed bumps name's idle clock.
func (g *Guard) MarkUsed(name string) {
	g.mu.Lock()
	if t, ok := g.objects[name]; ok {
		t.lastUsed = now()
	}
	g.mu.Unlock()
}

// AttachCache registers a cache for pressure handling: aggressive cleanup
// under high memory, full purge under critical.
func (g *Guard) AttachCache(c *cache.Cache) {
	g.mu.Lock()
	g.caches = append(g.caches, c)
	g.mu.Unlock()
}

// Cleanup releases non-essential objects idle for longer than maxIdle and
// returns how many were released. force widens the victim set to essential
// objects; the idle threshold still applies.
func (g *Guard) Cleanup(maxIdle time.Duration, force bool) int {
	cutoff := now().Add(-maxIdle)
	g.mu.Lock()
	victims := g.collectLocked(func(t *tracked) bool {
		if t.essential && !force {
			return false
		}
		return t.lastUsed.Before(cutoff)
	})
	g.mu.Unlock()
	return g.release(victims)
}

// EmergencyCleanup releases every non-essential object, purges every attached
// cache, and forces a garbage collection pass. Best-effort: release errors
// are logged and the entry is dropped regardless.
func (g *Guard) EmergencyCleanup() int {
	g.log.Warn().Msg("emergency memory cleanup")
	g.mu.Lock()
	victims := g.collectLocked(func(t *tracked) bool { return !t.essential })
	caches := append([]*cache.Cache(nil), g.caches...)
	g.mu.Unlock()

	n := g.release(victims)
	for _, c := range caches {
		c.Purge()
	}
	runtime.GC()
	return n
}

// collectLocked removes and returns entries matching pick. Caller holds g.mu.
func (g *Guard) collectLocked(pick func(*tracked) bool) map[string]*tracked {
	victims := make(map[string]*tracked)
	for name, t := range g.objects {
		if !pick(t) {
			continue
		}
		delete(g.objects, name)
		victims[name] = t
	}
	return victims
}

func (g *Guard) release(victims map[string]*tracked) int {
	for name, t := range victims {
		if err := t.obj.Release(); err != nil {
			g.log.Warn().Err(err).Str("object", name).Msg("release failed")
			continue
		}
		g.log.Info().Str("object", name).Float64("size_mb", t.sizeMB).Msg("released object")
	}
	return len(victims)
}

// Stats returns a point-in-time view for the status API.
func (g *Guard) Stats() types.GuardStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := types.GuardStats{Tracked: len(g.objects)}
	var sizeMB float64
	for _, t := range g.objects {
		if t.essential {
			st.Essential++
		}
		sizeMB += t.sizeMB
	}
	st.TotalSizeMB = int(sizeMB)
	return st
}

// now is a hook for deterministic time in tests.
var now = time.Now
