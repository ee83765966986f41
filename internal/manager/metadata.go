package manager

import (
	"encoding/json"
	"os"
	"time"

	"inferd/internal/common/fsutil"
)

// MetadataFile is the durable install/usage record next to the artifacts.
const MetadataFile = "model_metadata.json"

type modelRecord struct {
	TierID        string `json:"tier_id"`
	InstalledDate string `json:"installed_date"`
	LastUsed      string `json:"last_used"`
}

type metadata struct {
	Models      map[string]modelRecord `json:"models"`
	LastCheck   string                 `json:"last_check,omitempty"`
	LastCleanup string                 `json:"last_cleanup,omitempty"`
}

func newMetadata() metadata {
	return metadata{Models: map[string]modelRecord{}}
}

// loadMetadata reads the metadata file; a missing or unreadable file yields
// a fresh record rather than an error.
func loadMetadata(path string) metadata {
	b, err := os.ReadFile(path)
	if err != nil {
		return newMetadata()
	}
	var md metadata
	if err := json.Unmarshal(b, &md); err != nil {
		return newMetadata()
	}
	if md.Models == nil {
		md.Models = map[string]modelRecord{}
	}
	return md
}

// saveLocked writes metadata atomically. Caller holds m.mu.
func (m *AutoManager) saveLocked() {
	b, err := json.MarshalIndent(m.meta, "", "  ")
	if err != nil {
		m.log.Warn().Err(err).Msg("marshal metadata")
		return
	}
	if err := fsutil.WriteFileAtomic(m.metaPath, b, 0o644); err != nil {
		m.log.Warn().Err(err).Msg("save metadata")
	}
}

// lastUsedLocked parses a record's last-used stamp; records without one sort
// as oldest. Caller holds m.mu.
func (m *AutoManager) lastUsedLocked(tierID string) time.Time {
	rec, ok := m.meta.Models[tierID]
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, rec.LastUsed)
	if err != nil {
		return time.Time{}
	}
	return ts
}
