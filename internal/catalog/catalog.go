// Package catalog is the static registry of model tiers and the tier
// selection rules (compatibility filtering and recommendation).
package catalog

import (
	"sort"

	"inferd/pkg/types"
)

// Model kinds served by the catalog.
const (
	KindLLM = "llm"
	KindVLM = "vlm"
)

// diskBuffer over-provisions free disk checks so a download never lands a
// host at exactly zero bytes free.
const diskBuffer = 1.2

// Catalog is a read-only tier registry.
type Catalog struct {
	tiers    []types.Tier
	byID     map[string]types.Tier
	standard map[string]string
}

// New returns the built-in catalog.
func New() *Catalog {
	return NewWith(builtinTiers, standardByKind)
}

// NewWith builds a catalog from an explicit tier set and per-kind standard
// designations. Used for alternate registries and in tests.
func NewWith(tiers []types.Tier, standard map[string]string) *Catalog {
	c := &Catalog{
		tiers:    make([]types.Tier, len(tiers)),
		byID:     make(map[string]types.Tier, len(tiers)),
		standard: standard,
	}
	copy(c.tiers, tiers)
	for _, t := range c.tiers {
		c.byID[t.ID] = t
	}
	return c
}

// List returns tiers of the given kind; empty kind lists everything.
func (c *Catalog) List(kind string) []types.Tier {
	out := make([]types.Tier, 0, len(c.tiers))
	for _, t := range c.tiers {
		if kind == "" || t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// ByID looks up a tier by identifier.
func (c *Catalog) ByID(id string) (types.Tier, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// ByLevel looks up the tier of a kind at the given level.
func (c *Catalog) ByLevel(kind, level string) (types.Tier, bool) {
	for _, t := range c.List(kind) {
		if t.Level == level {
			return t, true
		}
	}
	return types.Tier{}, false
}

// Compatible returns tiers of the given kind the profile can run: minimum
// RAM satisfied, minimum VRAM absent or satisfied, and free disk covering
// the artifact with a buffer.
func (c *Catalog) Compatible(profile types.SystemProfile, kind string) []types.Tier {
	var out []types.Tier
	for _, t := range c.List(kind) {
		if profile.RAMGB < t.MinRAMGB {
			continue
		}
		if t.MinVRAMGB > 0 && profile.VRAMGB < t.MinVRAMGB {
			continue
		}
		if profile.FreeDiskGB < t.SizeGB*diskBuffer {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Recommend picks the best tier for the profile: the designated standard
// tier when compatible, else the largest compatible tier by parameter count,
// else the lightest tier of the kind unconditionally so every host can run
// something.
func (c *Catalog) Recommend(profile types.SystemProfile, kind string) types.Tier {
	compatible := c.Compatible(profile, kind)
	if len(compatible) == 0 {
		return c.Lightest(kind)
	}
	if stdID, ok := c.standard[kind]; ok {
		for _, t := range compatible {
			if t.ID == stdID {
				return t
			}
		}
	}
	sort.Slice(compatible, func(i, j int) bool {
		return compatible[i].ParamsB > compatible[j].ParamsB
	})
	return compatible[0]
}

// RecommendStrict is Recommend without the unconditional fallback: when not
// even the lightest tier fits the host, an incompatible-system error is
// returned for the operator to act on.
func (c *Catalog) RecommendStrict(profile types.SystemProfile, kind string) (types.Tier, error) {
	if len(c.Compatible(profile, kind)) == 0 {
		return types.Tier{}, incompatibleSystemError{kind: kind}
	}
	return c.Recommend(profile, kind), nil
}

// Lightest returns the smallest tier of the kind by minimum RAM, breaking
// ties by parameter count.
func (c *Catalog) Lightest(kind string) types.Tier {
	tiers := c.List(kind)
	if len(tiers) == 0 {
		return types.Tier{}
	}
	lightest := tiers[0]
	for _, t := range tiers[1:] {
		if t.MinRAMGB < lightest.MinRAMGB ||
			(t.MinRAMGB == lightest.MinRAMGB && t.ParamsB < lightest.ParamsB) {
			lightest = t
		}
	}
	return lightest
}
