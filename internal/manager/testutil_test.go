package manager

import (
	"testing"

	"inferd/internal/catalog"
	"inferd/pkg/types"
)

// catalogWith builds a catalog for tests, defaulting capabilities so tiers
// stay terse at call sites.
func catalogWith(t *testing.T, tiers []types.Tier, standard map[string]string) *catalog.Catalog {
	t.Helper()
	for i := range tiers {
		if len(tiers[i].Capabilities) == 0 {
			tiers[i].Capabilities = []types.Capability{types.CapTextGeneration}
		}
	}
	return catalog.NewWith(tiers, standard)
}
