package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/common/fsutil"
	"inferd/internal/fetch"
	"inferd/internal/sysinfo"
	"inferd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxOldArtifacts = 1
	defaultRetryBudget     = 2 * time.Minute
)

// Config encapsulates AutoManager tunables.
type Config struct {
	Dir             string
	MaxOldArtifacts int
	// RetryBudget bounds the total backoff time spent on transient
	// download failures before they surface to the caller.
	RetryBudget time.Duration
}

// AutoManager resolves tiers for the host and keeps their artifacts present,
// verified, and within the retention budget.
type AutoManager struct {
	mu       sync.Mutex
	dir      string
	metaPath string
	meta     metadata
	maxOld   int
	budget   time.Duration

	catalog  *catalog.Catalog
	profiler sysinfo.Profiler
	fetcher  *fetch.Fetcher

	// activeTiers reports artifacts backing loaded or loading instances;
	// wired by the daemon to the pool. Nil means nothing is active.
	activeTiers func() map[string]bool

	log zerolog.Logger
}

// New constructs an AutoManager over an artifact directory, creating the
// directory and loading existing metadata.
func New(cfg Config, cat *catalog.Catalog, prof sysinfo.Profiler, f *fetch.Fetcher, log zerolog.Logger) (*AutoManager, error) {
	dir, err := fsutil.ExpandHome(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("models dir: %w", err)
	}
	m := &AutoManager{
		dir:      dir,
		metaPath: filepath.Join(dir, MetadataFile),
		maxOld:   cfg.MaxOldArtifacts,
		budget:   cfg.RetryBudget,
		catalog:  cat,
		profiler: prof,
		fetcher:  f,
		log:      log,
	}
	if m.maxOld <= 0 {
		m.maxOld = defaultMaxOldArtifacts
	}
	if m.budget <= 0 {
		m.budget = defaultRetryBudget
	}
	m.meta = loadMetadata(m.metaPath)
	return m, nil
}

// SetActiveTiers wires the pool's active-instance view into retention.
func (m *AutoManager) SetActiveTiers(fn func() map[string]bool) {
	m.mu.Lock()
	m.activeTiers = fn
	m.mu.Unlock()
}

// Dir returns the artifact directory.
func (m *AutoManager) Dir() string { return m.dir }

// Resolve picks the tier for a request: an explicit override must name a
// catalog tier by id or level; otherwise the profiler measurement drives the
// recommendation.
func (m *AutoManager) Resolve(kind, tierOverride string) (types.Tier, types.SystemProfile, error) {
	profile := m.profiler.Measure()
	if tierOverride != "" {
		if tier, ok := m.catalog.ByID(tierOverride); ok {
			return tier, profile, nil
		}
		if tier, ok := m.catalog.ByLevel(kind, tierOverride); ok {
			return tier, profile, nil
		}
		return types.Tier{}, profile, ErrTierNotFound(tierOverride)
	}
	return m.catalog.Recommend(profile, kind), profile, nil
}

// EnsureAvailable resolves the tier and guarantees its artifact is on disk
// and verified, downloading when missing or corrupt. Transient network
// failures retry with exponential backoff within the configured budget;
// integrity failures abort immediately. On success the install/usage
// metadata is updated.
func (m *AutoManager) EnsureAvailable(ctx context.Context, kind, tierOverride string) (types.Tier, string, error) {
	tier, _, err := m.Resolve(kind, tierOverride)
	if err != nil {
		return types.Tier{}, "", err
	}

	op := func() (string, error) {
		p, err := m.fetcher.Download(ctx, tier)
		if err != nil && !fetch.IsNetwork(err) {
			// Integrity and local filesystem failures are not transient.
			return "", backoff.Permanent(err)
		}
		return p, err
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = m.budget
	path, err := backoff.RetryWithData(op, backoff.WithContext(bo, ctx))
	if err != nil {
		m.log.Error().Err(err).Str("tier", tier.ID).Msg("ensure failed")
		return tier, "", err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	m.mu.Lock()
	rec, existed := m.meta.Models[tier.ID]
	if !existed {
		rec = modelRecord{TierID: tier.ID, InstalledDate: now}
	}
	rec.LastUsed = now
	m.meta.Models[tier.ID] = rec
	m.meta.LastCheck = now
	m.saveLocked()
	m.mu.Unlock()

	return tier, path, nil
}

// MarkUsed bumps a tier's last-used stamp.
func (m *AutoManager) MarkUsed(tierID string) {
	now := time.Now().UTC().Format(time.RFC3339)
	m.mu.Lock()
	if rec, ok := m.meta.Models[tierID]; ok {
		rec.LastUsed = now
		m.meta.Models[tierID] = rec
		m.saveLocked()
	}
	m.mu.Unlock()
}

// InstalledModel is a durable record of a downloaded artifact.
type InstalledModel struct {
	TierID        string `json:"tier_id"`
	InstalledDate string `json:"installed_date"`
	LastUsed      string `json:"last_used"`
	Path          string `json:"path"`
}

// Installed lists artifacts present on disk with their metadata.
func (m *AutoManager) Installed() []InstalledModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []InstalledModel
	for _, p := range m.artifactPathsLocked() {
		id := strings.TrimSuffix(filepath.Base(p), fetch.ArtifactExt)
		im := InstalledModel{TierID: id, Path: p}
		if rec, ok := m.meta.Models[id]; ok {
			im.InstalledDate = rec.InstalledDate
			im.LastUsed = rec.LastUsed
		}
		out = append(out, im)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TierID < out[j].TierID })
	return out
}

// Remove deletes an installed artifact and its metadata record. Artifacts
// backing a loaded instance are refused.
func (m *AutoManager) Remove(tierID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isActiveLocked(tierID) {
		return artifactInUseError{id: tierID}
	}
	p := filepath.Join(m.dir, tierID+fetch.ArtifactExt)
	if err := os.Remove(p); err != nil {
		return err
	}
	delete(m.meta.Models, tierID)
	m.saveLocked()
	m.log.Info().Str("tier", tierID).Msg("artifact removed")
	return nil
}

// artifactPathsLocked lists artifact files in the models dir. Caller holds m.mu.
func (m *AutoManager) artifactPathsLocked() []string {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), fetch.ArtifactExt) {
			continue
		}
		out = append(out, filepath.Join(m.dir, e.Name()))
	}
	return out
}

func (m *AutoManager) isActiveLocked(tierID string) bool {
	if m.activeTiers == nil {
		return false
	}
	return m.activeTiers()[tierID]
}
