package types

// Capability names a feature an engine loaded from a tier can serve.
type Capability string

const (
	CapTextGeneration Capability = "text-generation"
	CapEmbeddings     Capability = "embeddings"
	CapVision         Capability = "vision"
)

// Tier describes one model variant and its resource requirements.
// The catalog is the only producer; tiers are immutable after construction.
type Tier struct {
	// Stable identifier, doubles as the artifact base name on disk.
	// example: llama-2-7b-q4_k_m
	ID string `json:"id"`
	// Human-friendly name.
	// example: Lightweight
	Name string `json:"name"`
	// Level groups tiers across kinds (lightweight, standard, performance).
	// Task-type defaults address tiers by level.
	Level string `json:"level"`
	// Model kind this tier belongs to ("llm" or "vlm").
	Kind string `json:"kind"`
	// Parameter count in billions.
	ParamsB float64 `json:"params_billion"`
	// Artifact size on disk in GB.
	SizeGB float64 `json:"size_gb"`
	// Minimum host RAM in GB.
	MinRAMGB float64 `json:"min_ram_gb"`
	// Minimum VRAM in GB; 0 means CPU-only operation is fine.
	MinVRAMGB float64 `json:"min_vram_gb,omitempty"`
	// Download source for the artifact.
	URL string `json:"url"`
	// Expected SHA-256 of the artifact, hex encoded.
	SHA256 string `json:"sha256"`
	// Capabilities an engine loaded from this tier provides.
	Capabilities []Capability `json:"capabilities"`
}

// HasCapabilities reports whether the tier covers every requested capability.
func (t Tier) HasCapabilities(req []Capability) bool {
	for _, want := range req {
		found := false
		for _, have := range t.Capabilities {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SystemProfile is a measured snapshot of host capability. It is recomputed
// on demand and never persisted.
type SystemProfile struct {
	RAMGB      float64 `json:"ram_gb"`
	VRAMGB     float64 `json:"vram_gb"`
	FreeDiskGB float64 `json:"free_disk_gb"`
}
