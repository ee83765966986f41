package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by Default values in main.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`

	// Pool
	MaxLoadedModels  int `json:"max_loaded_models" yaml:"max_loaded_models" toml:"max_loaded_models"`
	IdleUnloadSecs   int `json:"idle_unload_seconds" yaml:"idle_unload_seconds" toml:"idle_unload_seconds"`
	SweepIntervalSec int `json:"sweep_interval_seconds" yaml:"sweep_interval_seconds" toml:"sweep_interval_seconds"`
	ContextWindow    int `json:"context_window" yaml:"context_window" toml:"context_window"`

	// Retention
	MaxOldArtifacts       int `json:"max_old_artifacts" yaml:"max_old_artifacts" toml:"max_old_artifacts"`
	RetentionIntervalMins int `json:"retention_interval_minutes" yaml:"retention_interval_minutes" toml:"retention_interval_minutes"`

	// Memory guard
	HighMemoryPercent     float64 `json:"high_memory_percent" yaml:"high_memory_percent" toml:"high_memory_percent"`
	CriticalMemoryPercent float64 `json:"critical_memory_percent" yaml:"critical_memory_percent" toml:"critical_memory_percent"`
	MonitorIntervalSecs   int     `json:"monitor_interval_seconds" yaml:"monitor_interval_seconds" toml:"monitor_interval_seconds"`

	// Result cache
	CacheTTLSecs  int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds"`
	CacheTargetMB int `json:"cache_target_mb" yaml:"cache_target_mb" toml:"cache_target_mb"`

	// Task-type to tier mapping. Values may be catalog tier ids or levels
	// (lightweight, standard, performance); unknown task types fall back to
	// the profiler recommendation.
	DefaultTiers map[string]string `json:"default_tiers" yaml:"default_tiers" toml:"default_tiers"`

	// HTTP
	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Default returns the configuration applied where file/flag values are unset.
func Default() Config {
	return Config{
		Addr:                  ":8080",
		ModelsDir:             "~/.inferd/models",
		MaxLoadedModels:       2,
		IdleUnloadSecs:        1800,
		SweepIntervalSec:      60,
		ContextWindow:         4096,
		MaxOldArtifacts:       1,
		RetentionIntervalMins: 60,
		HighMemoryPercent:     80,
		CriticalMemoryPercent: 90,
		MonitorIntervalSecs:   60,
		CacheTTLSecs:          300,
		CacheTargetMB:         512,
		DefaultTiers: map[string]string{
			"general":    "standard",
			"code":       "standard",
			"creative":   "standard",
			"reasoning":  "performance",
			"embeddings": "lightweight",
		},
		LogLevel: "info",
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge overlays non-zero fields of b onto a and returns the result.
func Merge(a, b Config) Config {
	out := a
	if b.Addr != "" {
		out.Addr = b.Addr
	}
	if b.ModelsDir != "" {
		out.ModelsDir = b.ModelsDir
	}
	if b.MaxLoadedModels > 0 {
		out.MaxLoadedModels = b.MaxLoadedModels
	}
	if b.IdleUnloadSecs > 0 {
		out.IdleUnloadSecs = b.IdleUnloadSecs
	}
	if b.SweepIntervalSec > 0 {
		out.SweepIntervalSec = b.SweepIntervalSec
	}
	if b.ContextWindow > 0 {
		out.ContextWindow = b.ContextWindow
	}
	if b.MaxOldArtifacts > 0 {
		out.MaxOldArtifacts = b.MaxOldArtifacts
	}
	if b.RetentionIntervalMins > 0 {
		out.RetentionIntervalMins = b.RetentionIntervalMins
	}
	if b.HighMemoryPercent > 0 {
		out.HighMemoryPercent = b.HighMemoryPercent
	}
	if b.CriticalMemoryPercent > 0 {
		out.CriticalMemoryPercent = b.CriticalMemoryPercent
	}
	if b.MonitorIntervalSecs > 0 {
		out.MonitorIntervalSecs = b.MonitorIntervalSecs
	}
	if b.CacheTTLSecs > 0 {
		out.CacheTTLSecs = b.CacheTTLSecs
	}
	if b.CacheTargetMB > 0 {
		out.CacheTargetMB = b.CacheTargetMB
	}
	if len(b.DefaultTiers) > 0 {
		out.DefaultTiers = b.DefaultTiers
	}
	if b.CORSEnabled {
		out.CORSEnabled = true
	}
	if len(b.CORSOrigins) > 0 {
		out.CORSOrigins = b.CORSOrigins
	}
	if b.LogLevel != "" {
		out.LogLevel = b.LogLevel
	}
	return out
}
