package types

// InstanceStatus summarizes one loaded pool entry for /status.
type InstanceStatus struct {
	// ID of the tier this instance serves.
	// example: llama-2-7b-q4_k_m
	TierID string `json:"tier_id"`
	// Current lifecycle state of the instance (loading, ready).
	// example: ready
	State string `json:"state"`
	// Last time this instance served a request (unix seconds).
	LastUsed int64 `json:"last_used_unix"`
	// Whether at least one caller currently holds the instance.
	InUse bool `json:"in_use"`
	// Number of callers currently holding the instance.
	Refs int `json:"refs"`
	// Capabilities of the loaded engine.
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// CacheStats is a point-in-time view of one result cache.
type CacheStats struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// GuardStats summarizes the memory guard registry.
type GuardStats struct {
	Tracked     int `json:"tracked"`
	Essential   int `json:"essential"`
	TotalSizeMB int `json:"total_size_mb"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Loaded/loading pool instances.
	Instances []InstanceStatus `json:"instances"`
	// Configured instance capacity.
	MaxLoadedModels int `json:"max_loaded_models"`
	// Total model loads since start.
	LoadsTotal uint64 `json:"loads_total"`
	// Total idle evictions since start.
	EvictionsTotal uint64 `json:"evictions_total"`
	// Per-cache statistics.
	Caches []CacheStats `json:"caches,omitempty"`
	// Memory guard registry summary.
	Guard GuardStats `json:"guard"`
	// Uptime of the daemon in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
}

// TiersResponse wraps the catalog listing returned by GET /tiers.
type TiersResponse struct {
	Tiers []Tier `json:"tiers"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: tier not found
	Error string `json:"error"`
	// HTTP status code.
	// example: 404
	Code int `json:"code"`
}
