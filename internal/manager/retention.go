package manager

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"inferd/internal/catalog"
	"inferd/internal/fetch"
)

// EnforceRetention keeps at most MaxOldArtifacts artifacts beyond the
// currently recommended tier of each kind, evicting least-recently-used
// first. Artifacts backing loaded or loading instances are never deleted.
func (m *AutoManager) EnforceRetention() int {
	profile := m.profiler.Measure()
	protected := map[string]bool{
		m.catalog.Recommend(profile, catalog.KindLLM).ID: true,
		m.catalog.Recommend(profile, catalog.KindVLM).ID: true,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	type candidate struct {
		id       string
		path     string
		lastUsed time.Time
	}
	var candidates []candidate
	for _, p := range m.artifactPathsLocked() {
		id := strings.TrimSuffix(filepath.Base(p), fetch.ArtifactExt)
		if protected[id] || m.isActiveLocked(id) {
			continue
		}
		candidates = append(candidates, candidate{id: id, path: p, lastUsed: m.lastUsedLocked(id)})
	}

	m.meta.LastCleanup = time.Now().UTC().Format(time.RFC3339)
	if len(candidates) <= m.maxOld {
		m.saveLocked()
		return 0
	}

	// Oldest first; keep the newest maxOld.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastUsed.Before(candidates[j].lastUsed)
	})
	removed := 0
	for _, c := range candidates[:len(candidates)-m.maxOld] {
		if err := os.Remove(c.path); err != nil {
			m.log.Warn().Err(err).Str("tier", c.id).Msg("retention delete failed")
			continue
		}
		delete(m.meta.Models, c.id)
		removed++
		m.log.Info().Str("tier", c.id).Msg("retired old artifact")
	}
	m.saveLocked()
	return removed
}

// RunRetention enforces retention on a timer until ctx is canceled.
func (m *AutoManager) RunRetention(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.EnforceRetention()
		}
	}
}
