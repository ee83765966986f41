// Package daemon composes the subsystems into the service the HTTP layer
// exposes: tier resolution, pooled inference, result caching, artifact
// lifecycle, and the background sweepers.
package daemon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/cache"
	"inferd/internal/catalog"
	"inferd/internal/config"
	"inferd/internal/manager"
	"inferd/internal/memguard"
	"inferd/internal/pool"
	"inferd/pkg/types"
)

// Daemon implements httpapi.Service over the composed subsystems.
type Daemon struct {
	cfg   config.Config
	cat   *catalog.Catalog
	mgr   *manager.AutoManager
	pool  *pool.Pool
	guard *memguard.Guard

	genCache *cache.Cache
	embCache *cache.Cache

	started time.Time
	ready   atomic.Bool
	log     zerolog.Logger
}

// New wires the daemon: caches are created and attached to the guard, and
// retention learns which artifacts back resident instances.
func New(cfg config.Config, cat *catalog.Catalog, mgr *manager.AutoManager, p *pool.Pool, g *memguard.Guard, log zerolog.Logger) *Daemon {
	d := &Daemon{
		cfg:      cfg,
		cat:      cat,
		mgr:      mgr,
		pool:     p,
		guard:    g,
		genCache: cache.New("generate", float64(cfg.CacheTargetMB)),
		embCache: cache.New("embeddings", float64(cfg.CacheTargetMB)),
		started:  time.Now(),
		log:      log,
	}
	g.AttachCache(d.genCache)
	g.AttachCache(d.embCache)
	mgr.SetActiveTiers(p.ActiveTiers)
	d.trackPool()
	return d
}

// Start launches the background loops under ctx and marks the daemon ready.
func (d *Daemon) Start(ctx context.Context) {
	sweep := time.Duration(d.cfg.SweepIntervalSec) * time.Second
	go d.pool.RunSweeper(ctx, sweep)
	go d.genCache.RunSweeper(ctx, sweep)
	go d.embCache.RunSweeper(ctx, sweep)
	go d.mgr.RunRetention(ctx, time.Duration(d.cfg.RetentionIntervalMins)*time.Minute)
	go d.guard.RunMonitor(ctx, time.Duration(d.cfg.MonitorIntervalSecs)*time.Second)
	d.ready.Store(true)
	d.log.Info().Msg("daemon started")
}

// Shutdown releases every loaded engine.
func (d *Daemon) Shutdown() {
	d.ready.Store(false)
	d.pool.Shutdown()
}

// Ready reports whether Start has run.
func (d *Daemon) Ready() bool { return d.ready.Load() }

// Status assembles the point-in-time view served by GET /status.
func (d *Daemon) Status() types.StatusResponse {
	instances, loads, evictions := d.pool.Status()
	return types.StatusResponse{
		Instances:       instances,
		MaxLoadedModels: d.cfg.MaxLoadedModels,
		LoadsTotal:      loads,
		EvictionsTotal:  evictions,
		Caches:          []types.CacheStats{d.genCache.Stats(), d.embCache.Stats()},
		Guard:           d.guard.Stats(),
		UptimeSeconds:   int64(time.Since(d.started).Seconds()),
		ServerTimeUnix:  time.Now().Unix(),
	}
}

// Tiers lists the full catalog.
func (d *Daemon) Tiers() []types.Tier { return d.cat.List("") }

// RemoveArtifact deletes a downloaded artifact unless it backs a loaded
// instance.
func (d *Daemon) RemoveArtifact(tierID string) error {
	return d.mgr.Remove(tierID)
}

// poolReleaser lets the guard spill the pool's idle engines under pressure.
type poolReleaser struct{ p *pool.Pool }

func (r poolReleaser) Release() error {
	r.p.SweepIdle(0)
	return nil
}

// trackPool (re-)registers the pool with the guard. The guard drops entries
// it releases, so the serving paths re-add the pool after each request.
func (d *Daemon) trackPool() {
	d.guard.Register("model-pool", poolReleaser{p: d.pool}, 0, false)
}
